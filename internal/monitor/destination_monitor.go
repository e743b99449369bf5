package monitor

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
)

// DestinationMonitor periodically checks that the destinations of dynamic
// codes are still reachable. A printed code pointing at a dead destination is
// invisible breakage otherwise, since the redirect itself keeps working.
// It maintains a state map to detect and log reachability transitions.
type DestinationMonitor struct {
	repo        repository.QRCodeRepository
	interval    time.Duration
	knownStates map[string]bool // code id -> reachable at last check
	mu          sync.Mutex      // protects knownStates
	httpClient  *http.Client
}

// NewDestinationMonitor creates and returns a new instance of DestinationMonitor.
// interval determines how frequently destinations are checked.
func NewDestinationMonitor(repo repository.QRCodeRepository, interval time.Duration) *DestinationMonitor {
	return &DestinationMonitor{
		repo:        repo,
		interval:    interval,
		knownStates: make(map[string]bool),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Start launches the periodic monitoring loop. This is a blocking function
// that runs until the program stops; run it in its own goroutine.
func (m *DestinationMonitor) Start() {
	log.Printf("[MONITOR] Starting destination monitor with interval of %v...", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Immediate check on startup before waiting for the first tick.
	m.checkDestinations()

	for range ticker.C {
		m.checkDestinations()
	}
}

// checkDestinations performs a reachability check on every dynamic code's
// current destination and logs any state changes since the previous round.
func (m *DestinationMonitor) checkDestinations() {
	log.Println("[MONITOR] Starting destination verification...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Page through the whole table: a zero-limit List returns only the
	// newest page, which would silently drop older codes from monitoring.
	var codes []models.QRCode
	for offset := 0; ; offset += repository.DefaultListLimit {
		page, err := m.repo.List(ctx, repository.ListFilter{
			Type:   models.TypeDynamic,
			Limit:  repository.DefaultListLimit,
			Offset: offset,
		})
		if err != nil {
			log.Printf("[MONITOR] ERROR retrieving dynamic codes for monitoring: %v", err)
			return
		}
		codes = append(codes, page...)
		if len(page) < repository.DefaultListLimit {
			break
		}
	}

	for _, code := range codes {
		currentState := m.isReachable(code.RedirectURL)

		m.mu.Lock()
		previousState, exists := m.knownStates[code.ID]
		m.knownStates[code.ID] = currentState
		m.mu.Unlock()

		if !exists {
			log.Printf("[MONITOR] Initial state for code %s (%s): %s",
				code.ID, code.RedirectURL, formatState(currentState))
			continue
		}

		if currentState != previousState {
			log.Printf("[NOTIFICATION] Code %s (%s) changed from %s to %s!",
				code.ID, code.RedirectURL, formatState(previousState), formatState(currentState))
		}
	}
	log.Println("[MONITOR] Destination verification completed.")
}

// isReachable performs an HTTP HEAD request to check if a destination is up.
// Returns true for 2xx and 3xx responses.
func (m *DestinationMonitor) isReachable(url string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		log.Printf("[MONITOR] Error creating request for URL '%s': %v", url, err)
		return false
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Printf("[MONITOR] Error accessing URL '%s': %v", url, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

// formatState converts a reachability state to a readable log string.
func formatState(reachable bool) string {
	if reachable {
		return "REACHABLE"
	}
	return "UNREACHABLE"
}
