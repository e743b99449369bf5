package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
)

func setupQRRepo(t *testing.T) repository.QRCodeRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.QRCode{}, &models.ScanEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return repository.NewQRCodeRepository(db)
}

// TestCheckDestinationsCoversAllPages ensures codes beyond the first List
// page are still health-checked.
func TestCheckDestinationsCoversAllPages(t *testing.T) {
	repo := setupQRRepo(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	total := repository.DefaultListLimit + 5
	now := time.Now().UTC()
	for i := 0; i < total; i++ {
		code := &models.QRCode{
			ID:          fmt.Sprintf("mon%05d", i),
			Type:        models.TypeDynamic,
			RedirectURL: srv.URL,
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
			UpdatedAt:   now.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, code); err != nil {
			t.Fatalf("Create(%s) failed: %v", code.ID, err)
		}
	}

	m := NewDestinationMonitor(repo, time.Minute)
	m.checkDestinations()

	m.mu.Lock()
	checked := len(m.knownStates)
	m.mu.Unlock()
	if checked != total {
		t.Errorf("destinations checked = %d, want %d (older codes fell out of monitoring)", checked, total)
	}

	for i := 0; i < total; i++ {
		id := fmt.Sprintf("mon%05d", i)
		m.mu.Lock()
		state, ok := m.knownStates[id]
		m.mu.Unlock()
		if !ok {
			t.Fatalf("code %s was never checked", id)
		}
		if !state {
			t.Errorf("code %s recorded unreachable against a live server", id)
		}
	}
}
