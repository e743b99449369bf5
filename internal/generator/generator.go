// Package generator produces the identifiers QR codes are keyed by.
package generator

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// charset defines the character set used for generating dynamic identifiers.
// Uses alphanumeric characters (both cases) for a total of 62 possible characters.
// This gives us 62^8 = ~218 trillion possible combinations for 8-character tokens.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DynamicIDLength is the length of the short token a dynamic code is scanned by.
const DynamicIDLength = 8

// IdentifierGenerator allocates identifiers for new QR codes. It holds no
// state beyond randomness consumption and is safe for concurrent use from
// multiple request handlers.
//
// Uniqueness is not checked here: the repository's unique index is the
// authority, and the lifecycle service retries a fresh draw when an insert
// reports a collision.
type IdentifierGenerator struct{}

// NewIdentifierGenerator creates and returns a new IdentifierGenerator.
func NewIdentifierGenerator() *IdentifierGenerator {
	return &IdentifierGenerator{}
}

// NextStatic returns a 128-bit random identifier for a static code.
// Collision probability is negligible, so no retry protocol applies;
// a duplicate insert still fails at the repository and is propagated.
func (g *IdentifierGenerator) NextStatic() string {
	return uuid.NewString()
}

// NextDynamic returns a short URL-safe token for a dynamic code.
// Each character is drawn with crypto/rand so tokens are not guessable.
func (g *IdentifierGenerator) NextDynamic() (string, error) {
	code := make([]byte, DynamicIDLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
