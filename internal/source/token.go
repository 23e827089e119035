package source

import (
	"sync"

	"github.com/google/uuid"
)

// PassTokenGenerator generates unique tokens identifying one
// reconciliation pass. The host generates a token per pass, attaches
// it to the logger handed to Retrieve, and keys persisted observations
// by it. Implemented by UUIDv7Generator (production) and
// FixedGenerator (tests).
type PassTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 pass tokens. The
// embedded timestamp makes tokens sortable by pass start time, which
// keeps store listings and log lines in chronological order for free.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined pass tokens for deterministic
// tests and golden comparisons.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
// Generate panics once the tokens are exhausted.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
