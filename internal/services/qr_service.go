// Package services contains the business logic layer for the QR code service
package services

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/encoder"
	qrerrors "github.com/gsinghjay/mvp-qr-gen-sub001/internal/errors"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/generator"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
)

// maxCreateRetries bounds how often a dynamic create draws a fresh identifier
// after an insert collision before giving up with ErrIdentifierExhausted.
const maxCreateRetries = 5

// QRServiceConfig carries the tunables the lifecycle service needs. Injected
// explicitly at construction so the service stays testable without touching
// process-wide configuration state.
type QRServiceConfig struct {
	// ResolverBase is the absolute URL prefix dynamic code images encode,
	// e.g. "http://localhost:8080/r". Destinations pointing back under this
	// prefix are rejected to prevent redirect loops.
	ResolverBase string

	// MaxContentLength caps static payloads (QR physical capacity).
	MaxContentLength int

	// MaxURLLength caps redirect destinations.
	MaxURLLength int
}

// QRService provides business logic methods for the QR code lifecycle.
// It acts as an intermediary between the HTTP handlers and the data
// repository, and orchestrates the identifier generator and image encoder.
type QRService struct {
	repo     repository.QRCodeRepository
	scanRepo repository.ScanEventRepository
	gen      *generator.IdentifierGenerator
	enc      *encoder.Encoder
	cfg      QRServiceConfig
}

// NewQRService creates and returns a new instance of QRService.
func NewQRService(repo repository.QRCodeRepository, scanRepo repository.ScanEventRepository,
	gen *generator.IdentifierGenerator, enc *encoder.Encoder, cfg QRServiceConfig) *QRService {
	return &QRService{
		repo:     repo,
		scanRepo: scanRepo,
		gen:      gen,
		enc:      enc,
		cfg:      cfg,
	}
}

// ResolverURL returns the payload a dynamic code's image encodes: the resolver
// endpoint parameterized by the identifier. The destination itself is never
// encoded, which is what makes the destination updatable without reprinting.
func (s *QRService) ResolverURL(id string) string {
	return strings.TrimSuffix(s.cfg.ResolverBase, "/") + "/" + id
}

// CreateStatic validates the payload and style, persists a static code and
// renders its image. The payload is immutable afterwards.
// Returns the record and the PNG bytes.
func (s *QRService) CreateStatic(ctx context.Context, content string, style encoder.StyleOptions) (*models.QRCode, []byte, error) {
	if err := s.validateContent(content); err != nil {
		return nil, nil, err
	}
	style = style.WithDefaults()
	if err := validateStyle(style); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	code := &models.QRCode{
		ID:        s.gen.NextStatic(),
		Type:      models.TypeStatic,
		Content:   content,
		FillColor: style.FillColor,
		BackColor: style.BackColor,
		Size:      style.Size,
		Border:    style.Border,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// A UUID collision is practically impossible; if the insert still hits
	// one, it propagates instead of retrying.
	if err := s.repo.Create(ctx, code); err != nil {
		return nil, nil, err
	}

	png, err := s.enc.Encode(content, style)
	if err != nil {
		return nil, nil, err
	}
	return code, png, nil
}

// CreateDynamic validates the initial destination and style, allocates a short
// identifier with collision retry, persists the record and renders the image.
// The image encodes the resolver URL, not the destination.
func (s *QRService) CreateDynamic(ctx context.Context, redirectURL string, style encoder.StyleOptions) (*models.QRCode, []byte, error) {
	if err := s.validateDestination(redirectURL); err != nil {
		return nil, nil, err
	}
	style = style.WithDefaults()
	if err := validateStyle(style); err != nil {
		return nil, nil, err
	}

	var code *models.QRCode

	// Retry loop to handle identifier collisions. The repository's unique
	// index is the authority; a duplicate insert just means drawing again.
	for i := 0; i < maxCreateRetries; i++ {
		id, err := s.gen.NextDynamic()
		if err != nil {
			return nil, nil, err
		}

		now := time.Now().UTC()
		candidate := &models.QRCode{
			ID:          id,
			Type:        models.TypeDynamic,
			RedirectURL: redirectURL,
			FillColor:   style.FillColor,
			BackColor:   style.BackColor,
			Size:        style.Size,
			Border:      style.Border,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = s.repo.Create(ctx, candidate)
		if err == nil {
			code = candidate
			break
		}
		if errors.Is(err, qrerrors.ErrDuplicateIdentifier) {
			log.Printf("Identifier '%s' already exists, retrying generation (%d/%d)...", id, i+1, maxCreateRetries)
			continue
		}
		return nil, nil, err
	}

	if code == nil {
		return nil, nil, qrerrors.ErrIdentifierExhausted
	}

	png, err := s.enc.Encode(s.ResolverURL(code.ID), style)
	if err != nil {
		return nil, nil, err
	}
	return code, png, nil
}

// UpdateDynamicDestination repoints an existing dynamic code. The new URL is
// validated exactly like at creation; the repository applies the change
// atomically and bumps updated_at.
func (s *QRService) UpdateDynamicDestination(ctx context.Context, id, newURL string) (*models.QRCode, error) {
	if err := s.validateDestination(newURL); err != nil {
		return nil, err
	}
	return s.repo.UpdateDestination(ctx, id, newURL)
}

// RegenerateImage re-renders the image for an existing code. For dynamic
// codes the payload is always the resolver URL, for static codes the stored
// content. Passing nil style re-renders with the options recorded at
// creation; a non-nil style renders a restyled variant without mutating the
// record.
func (s *QRService) RegenerateImage(ctx context.Context, id string, style *encoder.StyleOptions) ([]byte, error) {
	code, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	opts := encoder.StyleOptions{
		FillColor: code.FillColor,
		BackColor: code.BackColor,
		Size:      code.Size,
		Border:    code.Border,
	}
	if style != nil {
		opts = style.WithDefaults()
		if err := validateStyle(opts); err != nil {
			return nil, err
		}
	}

	payload := code.Content
	if code.IsDynamic() {
		payload = s.ResolverURL(code.ID)
	}
	return s.enc.Encode(payload, opts)
}

// Stats is the reporting view of a single code.
type Stats struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	ScanCount      int64      `json:"scan_count"`
	LastScanAt     *time.Time `json:"last_scan_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	RecordedEvents int64      `json:"recorded_events"`
}

// GetStats retrieves the scan statistics for a given code. ScanCount is the
// authoritative counter; RecordedEvents is the best-effort analytics row count
// and may trail behind it.
func (s *QRService) GetStats(ctx context.Context, id string) (*Stats, error) {
	code, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := s.scanRepo.CountByQRID(ctx, code.ID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		ID:             code.ID,
		Type:           code.Type,
		ScanCount:      code.ScanCount,
		LastScanAt:     code.LastScanAt,
		CreatedAt:      code.CreatedAt,
		UpdatedAt:      code.UpdatedAt,
		RecordedEvents: events,
	}, nil
}

// Get retrieves a single code by identifier.
func (s *QRService) Get(ctx context.Context, id string) (*models.QRCode, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves codes matching the filter, newest first.
func (s *QRService) List(ctx context.Context, filter repository.ListFilter) ([]models.QRCode, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a code together with its scan events.
func (s *QRService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// validateContent checks a static payload before anything is persisted.
func (s *QRService) validateContent(content string) error {
	if content == "" {
		return qrerrors.ErrInvalidContent{Reason: "content must not be empty"}
	}
	if len(content) > s.cfg.MaxContentLength {
		return qrerrors.ErrInvalidContent{Reason: "content exceeds maximum payload length"}
	}
	return nil
}

// validateDestination applies the shared rule for creation and update: an
// absolute http(s) URL within the length cap that does not point back into
// the resolver itself.
func (s *QRService) validateDestination(raw string) error {
	if raw == "" {
		return qrerrors.ErrInvalidDestination{URL: raw, Reason: "destination must not be empty"}
	}
	if len(raw) > s.cfg.MaxURLLength {
		return qrerrors.ErrInvalidDestination{URL: raw, Reason: "destination exceeds maximum length"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return qrerrors.ErrInvalidDestination{URL: raw, Reason: "malformed URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return qrerrors.ErrInvalidDestination{URL: raw, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return qrerrors.ErrInvalidDestination{URL: raw, Reason: "destination must be absolute"}
	}
	// A destination under our own resolver prefix would chain redirects back
	// into the resolver indefinitely. Scheme and host are case-insensitive,
	// so the comparison runs on the parsed parts, not the raw string.
	if base, baseErr := url.Parse(s.cfg.ResolverBase); baseErr == nil {
		basePath := strings.TrimSuffix(base.Path, "/") + "/"
		if strings.EqualFold(u.Scheme, base.Scheme) &&
			strings.EqualFold(u.Host, base.Host) &&
			strings.HasPrefix(u.Path, basePath) {
			return qrerrors.ErrInvalidDestination{URL: raw, Reason: "destination points back into the resolver"}
		}
	}
	return nil
}

// validateStyle checks rendering options after defaults have been applied.
func validateStyle(style encoder.StyleOptions) error {
	if _, err := encoder.ParseColor(style.FillColor); err != nil {
		return qrerrors.ErrInvalidStyle{Field: "fill_color", Reason: err.Error()}
	}
	if _, err := encoder.ParseColor(style.BackColor); err != nil {
		return qrerrors.ErrInvalidStyle{Field: "back_color", Reason: err.Error()}
	}
	if style.Size < encoder.MinSize || style.Size > encoder.MaxSize {
		return qrerrors.ErrInvalidStyle{Field: "size", Reason: "size out of bounds"}
	}
	if style.Border < 0 || style.Border > encoder.MaxBorder {
		return qrerrors.ErrInvalidStyle{Field: "border", Reason: "border out of bounds"}
	}
	return nil
}
