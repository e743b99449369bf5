package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	qrerrors "github.com/gsinghjay/mvp-qr-gen-sub001/internal/errors"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
)

// ListFilter narrows and pages a List call. A zero filter returns the newest
// codes of both variants.
type ListFilter struct {
	Type          string     // "static", "dynamic", or empty for both
	CreatedAfter  *time.Time // inclusive lower bound on created_at
	CreatedBefore *time.Time // exclusive upper bound on created_at
	Limit         int        // page size, DefaultListLimit when <= 0
	Offset        int
}

// DefaultListLimit is the page size used when a filter does not set one.
const DefaultListLimit = 100

// QRCodeRepository est une interface qui définit les méthodes d'accès aux données
type QRCodeRepository interface {
	Create(ctx context.Context, code *models.QRCode) error
	GetByID(ctx context.Context, id string) (*models.QRCode, error)
	UpdateDestination(ctx context.Context, id, newURL string) (*models.QRCode, error)
	IncrementScan(ctx context.Context, id string) (string, error)
	List(ctx context.Context, filter ListFilter) ([]models.QRCode, error)
	Delete(ctx context.Context, id string) error
}

// GormQRCodeRepository est l'implémentation de QRCodeRepository utilisant GORM.
type GormQRCodeRepository struct {
	db *gorm.DB
}

// NewQRCodeRepository crée et retourne une nouvelle instance de GormQRCodeRepository.
func NewQRCodeRepository(db *gorm.DB) *GormQRCodeRepository {
	return &GormQRCodeRepository{db: db}
}

// Create insère un nouveau code dans la base de données. Returns
// ErrDuplicateIdentifier when the id is already taken, so the caller can draw
// a fresh identifier for dynamic codes.
func (r *GormQRCodeRepository) Create(ctx context.Context, code *models.QRCode) error {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		if isDuplicateKey(err) {
			return qrerrors.ErrDuplicateIdentifier
		}
		return storageError("failed to create qr code", err)
	}
	return nil
}

// GetByID récupère un code de la base de données en utilisant son identifiant.
func (r *GormQRCodeRepository) GetByID(ctx context.Context, id string) (*models.QRCode, error) {
	var code models.QRCode
	if err := r.db.WithContext(ctx).First(&code, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, qrerrors.ErrNotFound
		}
		return nil, storageError("failed to get qr code", err)
	}
	return &code, nil
}

// UpdateDestination atomically repoints a dynamic code and bumps updated_at.
// The read and the write run in one transaction so a racing scan observes
// either the old or the new destination, never a partial write.
func (r *GormQRCodeRepository) UpdateDestination(ctx context.Context, id, newURL string) (*models.QRCode, error) {
	var code models.QRCode
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&code, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return qrerrors.ErrNotFound
			}
			return err
		}
		if !code.IsDynamic() {
			return qrerrors.ErrTypeMismatch
		}
		// Model(&code) writes the new values back into the struct we return.
		return tx.Model(&code).Updates(map[string]interface{}{
			"redirect_url": newURL,
			"updated_at":   time.Now().UTC(),
		}).Error
	})
	if err != nil {
		if errors.Is(err, qrerrors.ErrNotFound) || errors.Is(err, qrerrors.ErrTypeMismatch) {
			return nil, err
		}
		return nil, storageError("failed to update destination", err)
	}
	return &code, nil
}

// IncrementScan is the hot path of the resolver: in a single transaction it
// reads the current destination, adds one to scan_count and stamps
// last_scan_at, then returns the destination that was committed together with
// the increment. The column expression makes concurrent scans additive, so no
// increment is lost to a stale read-modify-write.
//
// updated_at is deliberately left alone here: scans are not edits.
func (r *GormQRCodeRepository) IncrementScan(ctx context.Context, id string) (string, error) {
	var redirectURL string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var code models.QRCode
		if err := tx.First(&code, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return qrerrors.ErrNotFound
			}
			return err
		}
		if !code.IsDynamic() {
			return qrerrors.ErrTypeMismatch
		}
		redirectURL = code.RedirectURL

		res := tx.Model(&models.QRCode{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
			"scan_count":   gorm.Expr("scan_count + 1"),
			"last_scan_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return qrerrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, qrerrors.ErrNotFound) || errors.Is(err, qrerrors.ErrTypeMismatch) {
			return "", err
		}
		return "", storageError("failed to record scan", err)
	}
	return redirectURL, nil
}

// List récupère les codes correspondant au filtre, newest first. The secondary
// id ordering keeps pages stable when records share a created_at timestamp.
func (r *GormQRCodeRepository) List(ctx context.Context, filter ListFilter) ([]models.QRCode, error) {
	q := r.db.WithContext(ctx).Model(&models.QRCode{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at < ?", *filter.CreatedBefore)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var codes []models.QRCode
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&codes).Error
	if err != nil {
		return nil, storageError("failed to list qr codes", err)
	}
	return codes, nil
}

// Delete supprime un code et ses événements de scan dans la même transaction,
// so deleting a code never leaves orphaned scan events behind.
func (r *GormQRCodeRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.QRCode{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return qrerrors.ErrNotFound
		}
		return tx.Delete(&models.ScanEvent{}, "qr_id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, qrerrors.ErrNotFound) {
			return err
		}
		return storageError("failed to delete qr code", err)
	}
	return nil
}

// isDuplicateKey recognizes a unique-index violation from the sqlite driver,
// whether or not GORM error translation is active.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// storageError wraps driver errors, surfacing deadline hits as the transient
// ErrStorageTimeout so callers can distinguish retryable failures.
func storageError(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", msg, qrerrors.ErrStorageTimeout)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
