// Package tokens abstracts the session-token entropy source. The core
// never reaches for crypto/rand directly; it asks a Generator, so tests
// can substitute deterministic tokens.
package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Length is the fixed size, in hex characters, of a session token.
const Length = 30

// Generator produces opaque session tokens. Tokens are session
// handles, not credentials.
type Generator interface {
	Generate() (string, error)
}

// Rand is the production Generator, backed by crypto/rand.
type Rand struct{}

// Generate returns a fresh Length-character hex token.
func (Rand) Generate() (string, error) {
	buf := make([]byte, Length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random token bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
