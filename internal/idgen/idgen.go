// Package idgen generates sortable per-process unique IDs for Turn rows,
// the way checkpoint.go generates ULIDs for checkpoint and session rows.
package idgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Gen produces monotonic-enough ULIDs without sharing entropy state across
// goroutines, since the ingest pipeline is single-writer but the CLI may
// construct more than one Gen per process (tests, mainly).
type Gen struct {
	mu      sync.Mutex
	entropy *rand.Rand
}

func New() *Gen {
	return &Gen{entropy: rand.New(rand.NewSource(time.Now().UnixNano()))} //nolint:gosec
}

// New returns a new ULID string seeded from the current time.
func (g *Gen) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

var defaultGen = New()

// NewID is a package-level convenience wrapping a shared Gen.
func NewID() string {
	return defaultGen.New()
}
