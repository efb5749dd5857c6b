package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/livelink/internal/scene"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Step, event.Response)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the harness's final
// state and returns a message per failure.
func (h *Harness) EvaluateAssertions(assertions []Assertion, trace []TraceEvent) []string {
	var errs []string
	for i, a := range assertions {
		if err := h.evaluate(a, trace); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func (h *Harness) evaluate(a Assertion, trace []TraceEvent) error {
	switch a.Type {
	case AssertEngineLocation:
		return h.assertEngineLocation(a, trace)
	case AssertEngineAbsent:
		return h.assertEngineAbsent(a, trace)
	case AssertPending:
		return h.assertPending(a, trace)
	case AssertEngineCalls:
		return h.assertEngineCalls(a, trace)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertEngineLocation checks an engine object's final location, compared
// after 5-decimal rounding.
func (h *Harness) assertEngineLocation(a Assertion, trace []TraceEvent) error {
	loc, ok := h.engine.Location(scene.NewHandle(a.Name))
	if !ok {
		return &AssertionError{
			Type:     AssertEngineLocation,
			Expected: fmt.Sprintf("%s at %v", a.Name, a.Location),
			Actual:   "object not found on engine",
			Trace:    trace,
		}
	}
	if !vectorsEqual(a.Location, loc[:]) {
		return &AssertionError{
			Type:     AssertEngineLocation,
			Expected: fmt.Sprintf("%s at %v", a.Name, a.Location),
			Actual:   fmt.Sprintf("%s at %v", a.Name, loc[:]),
			Trace:    trace,
		}
	}
	return nil
}

func (h *Harness) assertEngineAbsent(a Assertion, trace []TraceEvent) error {
	if loc, ok := h.engine.Location(scene.NewHandle(a.Name)); ok {
		return &AssertionError{
			Type:     AssertEngineAbsent,
			Expected: fmt.Sprintf("%s absent", a.Name),
			Actual:   fmt.Sprintf("%s at %v", a.Name, loc[:]),
			Trace:    trace,
		}
	}
	return nil
}

// assertPending checks a relay queue's final depth. Reading the depth does
// not drain the queue.
func (h *Harness) assertPending(a Assertion, trace []TraceEvent) error {
	target, err := scene.ParseSide(a.Target)
	if err != nil {
		return err
	}

	health := h.svc.Health()
	got := health.PendingForAuthoring
	if target == scene.SideEngine {
		got = health.PendingForEngine
	}
	if got != a.Count {
		return &AssertionError{
			Type:     AssertPending,
			Expected: fmt.Sprintf("%d records pending for %s", a.Count, target),
			Actual:   fmt.Sprintf("%d records", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertEngineCalls checks how many calls reached the engine.
func (h *Harness) assertEngineCalls(a Assertion, trace []TraceEvent) error {
	if a.List != nil && h.engine.ListCalls() != *a.List {
		return &AssertionError{
			Type:     AssertEngineCalls,
			Expected: fmt.Sprintf("%d list calls", *a.List),
			Actual:   fmt.Sprintf("%d list calls", h.engine.ListCalls()),
			Trace:    trace,
		}
	}
	if a.Set != nil && h.engine.SetCalls() != *a.Set {
		return &AssertionError{
			Type:     AssertEngineCalls,
			Expected: fmt.Sprintf("%d set calls", *a.Set),
			Actual:   fmt.Sprintf("%d set calls", h.engine.SetCalls()),
			Trace:    trace,
		}
	}
	return nil
}
