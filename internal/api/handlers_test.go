package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/encoder"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/generator"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/services"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	qrRepo := repository.NewQRCodeRepository(db)
	scanRepo := repository.NewScanEventRepository(db)
	qrService := services.NewQRService(qrRepo, scanRepo,
		generator.NewIdentifierGenerator(), encoder.NewEncoder(),
		services.QRServiceConfig{
			ResolverBase:     "http://localhost:8080/r",
			MaxContentLength: 2000,
			MaxURLLength:     2048,
		})
	records := make(chan models.ScanRecord, 100)
	resolver := services.NewRedirectResolver(qrRepo, records, 0)

	router := gin.New()
	SetupRoutes(router, qrService, resolver)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createDynamic(t *testing.T, router *gin.Engine, url string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/qrcodes/dynamic", gin.H{"redirect_url": url})
	if w.Code != http.StatusCreated {
		t.Fatalf("create dynamic status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.ID
}

func TestCreateDynamicEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/qrcodes/dynamic", gin.H{"redirect_url": "https://example.com/x"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		RedirectURL string `json:"redirect_url"`
		ImageBase64 string `json:"image_base64"`
		ResolverURL string `json:"resolver_url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Type != "dynamic" || resp.RedirectURL != "https://example.com/x" {
		t.Errorf("response = %+v", resp)
	}
	if resp.ImageBase64 == "" {
		t.Error("creation response carries no image")
	}
	if resp.ResolverURL != "http://localhost:8080/r/"+resp.ID {
		t.Errorf("resolver_url = %q", resp.ResolverURL)
	}
}

func TestCreateDynamicRejectsBadDestination(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/qrcodes/dynamic", gin.H{"redirect_url": "ftp://example.com"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}

	// Self-referential destinations must be rejected the same way.
	w = doJSON(t, router, http.MethodPost, "/api/v1/qrcodes/dynamic", gin.H{"redirect_url": "http://localhost:8080/r/abc123"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("self-reference status = %d, want 422", w.Code)
	}
}

func TestRedirectEndpoint(t *testing.T) {
	router := setupRouter(t)
	id := createDynamic(t, router, "https://example.com/landing")

	req := httptest.NewRequest(http.MethodGet, "/r/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/landing" {
		t.Errorf("Location = %q", loc)
	}

	// The scan must be reflected in the stats.
	sw := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/qrcodes/%s/stats", id), nil)
	if sw.Code != http.StatusOK {
		t.Fatalf("stats status = %d", sw.Code)
	}
	var stats struct {
		ScanCount int64 `json:"scan_count"`
	}
	if err := json.Unmarshal(sw.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.ScanCount != 1 {
		t.Errorf("scan_count = %d, want 1", stats.ScanCount)
	}
}

func TestRedirectUnknownIDReturns404(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/r/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRedirectStaticIDReturns400(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/qrcodes/static", gin.H{"content": "hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create static status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/r/"+resp.ID, nil)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rw.Code)
	}
}

func TestUpdateDestinationEndpoint(t *testing.T) {
	router := setupRouter(t)
	id := createDynamic(t, router, "https://old.example.com")

	w := doJSON(t, router, http.MethodPatch, "/api/v1/qrcodes/"+id, gin.H{"redirect_url": "https://new.example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	// The very next scan observes the new destination.
	req := httptest.NewRequest(http.MethodGet, "/r/"+id, nil)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)
	if loc := rw.Header().Get("Location"); loc != "https://new.example.com" {
		t.Errorf("Location after update = %q", loc)
	}
}

func TestImageEndpoint(t *testing.T) {
	router := setupRouter(t)
	id := createDynamic(t, router, "https://example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qrcodes/"+id+"/image", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("image endpoint did not return a PNG")
	}
}

func TestDeleteEndpoint(t *testing.T) {
	router := setupRouter(t)
	id := createDynamic(t, router, "https://example.com")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/qrcodes/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	gw := doJSON(t, router, http.MethodGet, "/api/v1/qrcodes/"+id, nil)
	if gw.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", gw.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	router := setupRouter(t)
	createDynamic(t, router, "https://example.com/a")
	createDynamic(t, router, "https://example.com/b")

	w := doJSON(t, router, http.MethodGet, "/api/v1/qrcodes?type=dynamic&limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Count   int               `json:"count"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Errorf("count = %d, results = %d, want 2", resp.Count, len(resp.Results))
	}
}
