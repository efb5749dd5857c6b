package relay

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// BatchIDGenerator generates correlation ids for pushed batches.
// Implemented by UUIDBatchIDs (production) and SequentialBatchIDs (tests).
type BatchIDGenerator interface {
	Generate() string
}

// UUIDBatchIDs generates time-sortable UUIDv7 batch ids.
//
// Thread-safety: UUIDBatchIDs is stateless and safe for concurrent use.
type UUIDBatchIDs struct{}

// Generate creates a new UUIDv7 string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDBatchIDs) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequentialBatchIDs returns "<prefix>-1", "<prefix>-2", ... for
// deterministic logs and traces.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialBatchIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialBatchIDs creates a sequential generator. An empty prefix
// defaults to "batch".
func NewSequentialBatchIDs(prefix string) *SequentialBatchIDs {
	if prefix == "" {
		prefix = "batch"
	}
	return &SequentialBatchIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialBatchIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
