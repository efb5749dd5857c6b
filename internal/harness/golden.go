package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// traceHeader is the first line of a serialized trace.
type traceHeader struct {
	Scenario string `json:"scenario"`
	BatchID  string `json:"batch_id,omitempty"`
}

// MarshalTrace serializes a trace as JSON lines: a header naming the
// scenario, then one compact event per line. Output is deterministic for a
// deterministic run and ends with a newline.
func MarshalTrace(scenarioName, batchID string, trace []TraceEvent) ([]byte, error) {
	var buf bytes.Buffer

	header, err := json.Marshal(traceHeader{Scenario: scenarioName, BatchID: batchID})
	if err != nil {
		return nil, fmt.Errorf("marshal trace header: %w", err)
	}
	buf.Write(header)
	buf.WriteByte('\n')

	for _, ev := range trace {
		line, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("marshal trace event %d: %w", ev.Seq, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, scenario.BatchID, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName, batchID string, result *Result) error {
	t.Helper()

	data, err := MarshalTrace(scenarioName, batchID, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
