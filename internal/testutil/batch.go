package testutil

// FixedBatchIDs generates the same batch id every time.
//
// This enables deterministic test execution and golden trace comparison.
// Unlike relay.SequentialBatchIDs, which numbers batches in sequence, every
// push handled with a FixedBatchIDs shares one id.
//
// Thread-safety: FixedBatchIDs is stateless and safe for concurrent use.
type FixedBatchIDs struct {
	id string
}

// NewFixedBatchIDs creates a fixed batch id generator.
//
// The id is typically set in the scenario YAML:
//
//	batch_id: "batch-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-batch-default".
func NewFixedBatchIDs(id string) *FixedBatchIDs {
	if id == "" {
		id = "test-batch-default"
	}
	return &FixedBatchIDs{id: id}
}

// Generate returns the fixed batch id.
//
// Implements relay.BatchIDGenerator.
func (g *FixedBatchIDs) Generate() string {
	return g.id
}
