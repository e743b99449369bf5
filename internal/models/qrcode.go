package models

import "time"

// QR code variants. Static codes carry their payload baked into the image;
// dynamic codes encode a resolver URL so the destination can be repointed
// without reprinting the code.
const (
	TypeStatic  = "static"
	TypeDynamic = "dynamic"
)

// QRCode represents a generated QR code stored in the database.
// Static and dynamic codes share one table and one identifier namespace;
// the Type tag decides which operations are legal on a record.
type QRCode struct {
	// ID is a UUID for static codes and a short URL-safe token for dynamic
	// codes (the token appears directly in the redirect path).
	ID string `gorm:"primaryKey;size:36"`

	// Type is one of TypeStatic or TypeDynamic.
	Type string `gorm:"size:10;not null;index"`

	// Content is the encoded payload for static codes, immutable after
	// creation. Empty for dynamic codes: their image always encodes the
	// resolver URL built from ID, never the destination itself.
	Content string `gorm:"size:2048"`

	// RedirectURL is the current destination of a dynamic code. Empty for
	// static codes. Mutable only through UpdateDestination.
	RedirectURL string `gorm:"size:2048"`

	// Rendering options, fixed once the image has been generated. A style
	// change means re-rendering the image, never updating the record.
	FillColor string `gorm:"size:20"`
	BackColor string `gorm:"size:20"`
	Size      int
	Border    int

	// ScanCount only ever increases, and only through the resolver's atomic
	// increment path.
	ScanCount int64 `gorm:"not null;default:0"`

	// LastScanAt is nil until the first successful scan.
	LastScanAt *time.Time

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// IsDynamic reports whether the record accepts destination updates and scans.
func (q *QRCode) IsDynamic() bool {
	return q.Type == TypeDynamic
}
