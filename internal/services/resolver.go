package services

import (
	"context"
	"log"
	"time"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
)

// defaultResolveTimeout bounds the storage round trip of a scan when the
// resolver is constructed without an explicit timeout.
const defaultResolveTimeout = 5 * time.Second

// ScanMetadata is the coarse request context the routing layer hands to the
// resolver for analytics. The resolver never parses raw HTTP itself.
type ScanMetadata struct {
	UserAgent string
	IPAddress string
	Referrer  string
}

// RedirectResolver maps a dynamic code's identifier to its current destination
// at scan time, counting the scan. The count lives in the authoritative
// QRCode record; the analytics event is queued fire-and-forget so the redirect
// never waits on it.
type RedirectResolver struct {
	repo    repository.QRCodeRepository
	events  chan<- models.ScanRecord
	timeout time.Duration
}

// NewRedirectResolver creates and returns a new RedirectResolver. events may
// be nil when scan recording is disabled (e.g. in tests).
func NewRedirectResolver(repo repository.QRCodeRepository, events chan<- models.ScanRecord, timeout time.Duration) *RedirectResolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return &RedirectResolver{
		repo:    repo,
		events:  events,
		timeout: timeout,
	}
}

// Resolve looks up the code, increments its scan counter and returns the
// destination to redirect to, all in one storage round trip. Error cases:
// ErrNotFound for an unknown identifier, ErrTypeMismatch when the identifier
// belongs to a static code (static codes are never scanned through the
// resolver), ErrStorageTimeout when the bounded storage deadline is hit.
//
// The storage mutation runs on a context detached from the caller's: once a
// scan has started, a client disconnect must not roll the counter back. Only
// the resolver's own deadline limits the operation.
func (r *RedirectResolver) Resolve(ctx context.Context, id string, meta ScanMetadata) (string, error) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	redirectURL, err := r.repo.IncrementScan(opCtx, id)
	if err != nil {
		return "", err
	}

	// Queue the analytics event without ever blocking the redirect. When the
	// buffer is full the event is dropped; the authoritative scan_count has
	// already been committed above.
	if r.events != nil {
		record := models.ScanRecord{
			QRID:      id,
			Timestamp: time.Now().UTC(),
			UserAgent: meta.UserAgent,
			IPAddress: meta.IPAddress,
			Referrer:  meta.Referrer,
		}
		select {
		case r.events <- record:
		default:
			log.Printf("WARNING: scan record channel is full, dropping event for %s", id)
		}
	}

	return redirectURL, nil
}
