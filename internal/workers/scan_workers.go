package workers

import (
	"context"
	"log"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/models"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
)

// StartScanWorkers launches a pool of worker goroutines that drain scan
// records from the channel into the scan_events table. Recording is
// best-effort by design: a failed write is logged and dropped, it never
// reaches the resolver or reorders a redirect. Workers exit when the channel
// is closed.
func StartScanWorkers(workerCount int, records <-chan models.ScanRecord, scanRepo repository.ScanEventRepository) {
	log.Printf("Starting %d scan worker(s)...", workerCount)

	for i := 0; i < workerCount; i++ {
		go scanWorker(records, scanRepo)
	}
}

// scanWorker is the function executed by each worker goroutine.
func scanWorker(records <-chan models.ScanRecord, scanRepo repository.ScanEventRepository) {
	for record := range records {
		event := &models.ScanEvent{
			QRID:      record.QRID,
			Timestamp: record.Timestamp,
			UserAgent: record.UserAgent,
			IPAddress: record.IPAddress,
			Referrer:  record.Referrer,
		}

		if err := scanRepo.Create(context.Background(), event); err != nil {
			// Log and continue: analytics rows are supplementary, the
			// authoritative counter was already committed by the resolver.
			log.Printf("ERROR: Failed to save scan event for %s: %v", record.QRID, err)
		}
	}
}
