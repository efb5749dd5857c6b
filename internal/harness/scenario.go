package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/livelink/internal/scene"
	"github.com/roach88/livelink/internal/syncapi"
)

// Scenario defines a relay conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// BatchID is the fixed id given to every pushed batch.
	// If empty, defaults to "test-batch-default".
	BatchID string `yaml:"batch_id,omitempty"`

	// PullFPS sets the poll rate gate. Zero means the relay default.
	PullFPS float64 `yaml:"pull_fps,omitempty"`

	// MaxPending caps each relay queue. Nil means the relay default;
	// zero means unbounded.
	MaxPending *int `yaml:"max_pending,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final engine and relay state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scenario action. Which fields apply depends on Action.
type Step struct {
	Action string `yaml:"action"`

	// engine_place, engine_remove
	Name     string    `yaml:"name,omitempty"`
	Location []float64 `yaml:"location,omitempty"`

	// engine_offline
	Offline bool `yaml:"offline,omitempty"`

	// advance
	Duration string `yaml:"duration,omitempty"`

	// push
	Source  string           `yaml:"source,omitempty"`
	Changes []syncapi.Change `yaml:"changes,omitempty"`
	Body    string           `yaml:"body,omitempty"`

	// pull
	Target string `yaml:"target,omitempty"`

	// Expect optionally validates the step's response.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Step actions.
const (
	StepEnginePlace   = "engine_place"
	StepEngineRemove  = "engine_remove"
	StepEngineOffline = "engine_offline"
	StepAdvance       = "advance"
	StepPush          = "push"
	StepPull          = "pull"
	StepHealth        = "health"
)

// Expect validates a relay response. Unset fields are not checked.
type Expect struct {
	// Status is the expected HTTP status. Zero means 200.
	Status int `yaml:"status,omitempty"`

	// Code is the expected error code of a failed request.
	Code string `yaml:"code,omitempty"`

	// push
	Accepted *int `yaml:"accepted,omitempty"`
	Applied  *int `yaml:"applied,omitempty"`
	Queued   *int `yaml:"queued,omitempty"`
	Skipped  *int `yaml:"skipped,omitempty"`

	// pull
	Count   *int             `yaml:"count,omitempty"`
	Changes []syncapi.Change `yaml:"changes,omitempty"`

	// health
	PendingForA *int `yaml:"pending_for_a,omitempty"`
	PendingForB *int `yaml:"pending_for_b,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "engine_location": object Name is at Location on the engine
	// - "engine_absent": object Name does not exist on the engine
	// - "pending": the queue toward Target holds Count records
	// - "engine_calls": the engine saw List list calls and Set set calls
	Type string `yaml:"type"`

	Name     string    `yaml:"name,omitempty"`
	Location []float64 `yaml:"location,omitempty"`

	Target string `yaml:"target,omitempty"`
	Count  int    `yaml:"count,omitempty"`

	List *int `yaml:"list,omitempty"`
	Set  *int `yaml:"set,omitempty"`
}

// Assertion type constants.
const (
	AssertEngineLocation = "engine_location"
	AssertEngineAbsent   = "engine_absent"
	AssertPending        = "pending"
	AssertEngineCalls    = "engine_calls"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.PullFPS < 0 {
		return fmt.Errorf("pull_fps must be non-negative")
	}
	if s.MaxPending != nil && *s.MaxPending < 0 {
		return fmt.Errorf("max_pending must be non-negative")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateStep validates a single step based on its action.
func validateStep(index int, st *Step) error {
	switch st.Action {
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	case StepEnginePlace:
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for engine_place", index)
		}
		if len(st.Location) != 3 {
			return fmt.Errorf("steps[%d]: location must have 3 components for engine_place", index)
		}
	case StepEngineRemove:
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for engine_remove", index)
		}
	case StepEngineOffline:
	case StepAdvance:
		d, err := time.ParseDuration(st.Duration)
		if err != nil {
			return fmt.Errorf("steps[%d]: invalid duration %q: %w", index, st.Duration, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: duration must be non-negative", index)
		}
	case StepPush:
		if st.Body != "" && (st.Source != "" || len(st.Changes) > 0) {
			return fmt.Errorf("steps[%d]: body excludes source and changes", index)
		}
	case StepPull, StepHealth:
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, st.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEngineLocation:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for engine_location", index)
		}
		if len(a.Location) != 3 {
			return fmt.Errorf("assertions[%d]: location must have 3 components for engine_location", index)
		}
	case AssertEngineAbsent:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for engine_absent", index)
		}
	case AssertPending:
		if _, err := scene.ParseSide(a.Target); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pending", index)
		}
	case AssertEngineCalls:
		if a.List == nil && a.Set == nil {
			return fmt.Errorf("assertions[%d]: list or set is required for engine_calls", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
