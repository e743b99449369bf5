package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the QR code service

// ErrNotFound is returned when an identifier doesn't exist in the database
var ErrNotFound = errors.New("qr code not found")

// ErrDuplicateIdentifier is returned when an insert collides with an existing
// identifier. Recoverable for dynamic codes (the generator draws again),
// fatal for static codes.
var ErrDuplicateIdentifier = errors.New("identifier already exists")

// ErrTypeMismatch is returned when an operation is applied to the wrong
// variant, e.g. updating a static code's destination or resolving a static code
var ErrTypeMismatch = errors.New("operation not valid for this code type")

// ErrIdentifierExhausted is returned when the generator retry budget is spent
// without finding a free identifier
var ErrIdentifierExhausted = errors.New("failed to allocate unique identifier")

// ErrStorageTimeout is returned when a storage operation exceeds its deadline.
// Transient: the caller may retry, the increment either fully happened or not.
var ErrStorageTimeout = errors.New("storage operation timed out")

// ErrInvalidDestination is returned when a redirect URL fails validation
type ErrInvalidDestination struct {
	URL    string
	Reason string
}

func (e ErrInvalidDestination) Error() string {
	return fmt.Sprintf("invalid destination %q: %s", e.URL, e.Reason)
}

// ErrInvalidContent is returned when a static payload fails validation
type ErrInvalidContent struct {
	Reason string
}

func (e ErrInvalidContent) Error() string {
	return fmt.Sprintf("invalid content: %s", e.Reason)
}

// ErrInvalidStyle is returned when rendering options fail validation
type ErrInvalidStyle struct {
	Field  string
	Reason string
}

func (e ErrInvalidStyle) Error() string {
	return fmt.Sprintf("invalid style option %s: %s", e.Field, e.Reason)
}

// ErrEncodingFailed is returned when the image encoder rejects a payload or
// rendering options
type ErrEncodingFailed struct {
	Reason string
}

func (e ErrEncodingFailed) Error() string {
	return fmt.Sprintf("qr encoding failed: %s", e.Reason)
}
