package models

import "time"

// ScanEvent is one analytics record per resolved scan, stored in the database.
// The table is append-only: events are never updated in place, and are removed
// only when their owning code is deleted.
type ScanEvent struct {
	// ID is the primary key with auto-increment functionality.
	ID uint `gorm:"primaryKey"`

	// QRID references the scanned code.
	// - index: scan counts and per-code timelines query on this column.
	QRID string `gorm:"size:36;index;not null"`

	// Timestamp records the moment the scan was resolved.
	Timestamp time.Time

	// UserAgent stores the scanning client information from the HTTP request.
	UserAgent string `gorm:"size:255"`

	// IPAddress stores the scanner's IP address (IPv4 or IPv6).
	IPAddress string `gorm:"size:50"`

	// Referrer stores the Referer header when the scan came through a page.
	Referrer string `gorm:"size:255"`
}

// ScanRecord is a raw scan event intended to be passed through channels.
// This lightweight struct is handed from the resolver to the worker pool;
// the workers turn it into a persisted ScanEvent.
type ScanRecord struct {
	QRID      string    // The identifier of the scanned code
	Timestamp time.Time // When the scan was resolved
	UserAgent string    // Scanning client information
	IPAddress string    // Scanner's IP address
	Referrer  string    // Referer header, if any
}
