// Package id provides centralized ID generation for the backend.
//
// Two generators live here:
//   - Allocator: monotonically increasing 64-bit session ids. Id 0 is the
//     reserved "all sessions" sentinel and is never allocated.
//   - RequestID: prefixed ULIDs for tracing API requests (req_*).
//
// Session ids are intentionally small integers rather than ULIDs: the UI
// addresses sessions by id on every keystroke, and the kill-all sentinel
// requires a numeric namespace.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Session Id Allocator
// ============================================================================

// KillAllSentinel is the reserved session id meaning "every live session".
// Allocator never returns it.
const KillAllSentinel uint64 = 0

// Allocator hands out unique, non-zero session ids.
// Safe for concurrent use; ids are monotonic per allocator.
type Allocator struct {
	counter atomic.Uint64
}

// NewAllocator creates an allocator whose first id is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next session id. It never returns 0: on the (practically
// unreachable) 64-bit wraparound the zero value is skipped.
func (a *Allocator) Next() uint64 {
	for {
		id := a.counter.Add(1)
		if id != KillAllSentinel {
			return id
		}
	}
}

// ============================================================================
// Request Ids (ULID)
// ============================================================================

// RequestID identifies an API request in traces and logs.
type RequestID string

// RequestPrefix tags request ids for readability in logs.
const RequestPrefix = "req"

// Generator generates ULIDs with a prefix.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a ULID generator with cryptographically secure entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new request id.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// String returns the id as a plain string.
func (id RequestID) String() string { return string(id) }

// IsValid checks if an id string is a valid ULID.
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}
