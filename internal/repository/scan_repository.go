package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
)

// ScanEventRepository est une interface qui définit les méthodes d'accès aux données
type ScanEventRepository interface {
	Create(ctx context.Context, event *models.ScanEvent) error
	CountByQRID(ctx context.Context, qrID string) (int64, error)
}

// GormScanEventRepository est l'implémentation de l'interface ScanEventRepository utilisant GORM.
type GormScanEventRepository struct {
	db *gorm.DB
}

// NewScanEventRepository crée et retourne une nouvelle instance de GormScanEventRepository.
func NewScanEventRepository(db *gorm.DB) *GormScanEventRepository {
	return &GormScanEventRepository{db: db}
}

// Create insère un nouvel événement de scan dans la base de données.
func (r *GormScanEventRepository) Create(ctx context.Context, event *models.ScanEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create scan event: %w", err)
	}
	return nil
}

// CountByQRID compte le nombre total d'événements de scan pour un code donné.
// Reporting only: the authoritative counter is QRCode.ScanCount, event rows
// are best-effort.
func (r *GormScanEventRepository) CountByQRID(ctx context.Context, qrID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ScanEvent{}).Where("qr_id = ?", qrID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count scan events for %s: %w", qrID, err)
	}
	return count, nil
}
