package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/livelink/internal/detect"
	"github.com/roach88/livelink/internal/httpapi"
	"github.com/roach88/livelink/internal/relay"
	"github.com/roach88/livelink/internal/scene"
	"github.com/roach88/livelink/internal/syncapi"
	"github.com/roach88/livelink/internal/testutil"
)

// Harness is the scenario execution engine.
// It drives a fresh relay with a deterministic clock and batch ids.
type Harness struct {
	engine  *testutil.FakeEngine
	clock   *testutil.FakeClock
	svc     *relay.Service
	handler http.Handler
	logger  *slog.Logger
	seq     int64
}

// New creates a harness configured for scenario.
func New(scenario *Scenario) *Harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	h := &Harness{
		engine: testutil.NewFakeEngine(),
		clock:  testutil.NewFakeClock(),
		logger: logger,
	}

	opts := []relay.Option{
		relay.WithClock(h.clock),
		relay.WithBatchIDs(testutil.NewFixedBatchIDs(scenario.BatchID)),
		relay.WithLogger(logger),
	}
	if scenario.PullFPS > 0 {
		opts = append(opts, relay.WithPollInterval(relay.PollIntervalForFPS(scenario.PullFPS)))
	}
	if scenario.MaxPending != nil {
		opts = append(opts, relay.WithMaxPending(*scenario.MaxPending))
	}

	h.svc = relay.New(h.engine, opts...)
	h.handler = httpapi.NewHandler(h.svc, httpapi.WithLogger(logger))
	return h
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh relay for isolation.
// Execution flow:
// 1. Build relay, in-memory engine and clock
// 2. Execute steps, validating expect clauses
// 3. Evaluate assertions against final state
// 4. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h := New(scenario)
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}

	for _, errMsg := range h.EvaluateAssertions(scenario.Assertions, result.Trace) {
		result.AddError(errMsg)
	}
	return result, nil
}

type placeArgs struct {
	Name     string    `json:"name"`
	Location []float64 `json:"location"`
}

type removeArgs struct {
	Name string `json:"name"`
}

type offlineArgs struct {
	Offline bool `json:"offline"`
}

type advanceArgs struct {
	Duration string `json:"duration"`
}

type rawBodyArgs struct {
	Body string `json:"body"`
}

type pullArgs struct {
	Target string `json:"target"`
}

// executeStep runs one step and appends it to the trace. Expectation
// mismatches are recorded on result; only harness failures are returned.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	h.seq++
	ev := TraceEvent{Seq: h.seq, Step: step.Action}

	switch step.Action {
	case StepEnginePlace:
		h.engine.Place(scene.NewHandle(step.Name), mgl64.Vec3{step.Location[0], step.Location[1], step.Location[2]})
		ev.Args = placeArgs{Name: step.Name, Location: step.Location}

	case StepEngineRemove:
		h.engine.Remove(scene.NewHandle(step.Name))
		ev.Args = removeArgs{Name: step.Name}

	case StepEngineOffline:
		h.engine.SetOffline(step.Offline)
		ev.Args = offlineArgs{Offline: step.Offline}

	case StepAdvance:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}
		h.clock.Advance(d)
		ev.Args = advanceArgs{Duration: step.Duration}

	case StepPush:
		var body []byte
		if step.Body != "" {
			body = []byte(step.Body)
			ev.Args = rawBodyArgs{Body: step.Body}
		} else {
			req := syncapi.PushRequest{Source: step.Source, Changes: step.Changes}
			if req.Changes == nil {
				req.Changes = []syncapi.Change{}
			}
			data, err := json.Marshal(req)
			if err != nil {
				return fmt.Errorf("encode push: %w", err)
			}
			body = data
			ev.Args = req
		}
		ev.Status, ev.Response = h.call(ctx, http.MethodPost, syncapi.RoutePush, body)

	case StepPull:
		route := syncapi.RoutePull + "?target=" + url.QueryEscape(step.Target)
		ev.Args = pullArgs{Target: step.Target}
		ev.Status, ev.Response = h.call(ctx, http.MethodGet, route, nil)

	case StepHealth:
		ev.Status, ev.Response = h.call(ctx, http.MethodGet, syncapi.RouteHealth, nil)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}

	result.AddTrace(ev)

	if step.Expect != nil {
		for _, msg := range checkExpect(step.Action, ev, step.Expect) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Action, msg))
		}
	}

	h.logger.Info("step completed", "step", i, "action", step.Action, "status", ev.Status)
	return nil
}

// call serves one request in process and returns the status and the
// response body.
func (h *Harness) call(ctx context.Context, method, target string, body []byte) (int, json.RawMessage) {
	req := httptest.NewRequest(method, target, bytes.NewReader(body)).WithContext(ctx)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	out := bytes.TrimSpace(rec.Body.Bytes())
	if len(out) > 0 && !json.Valid(out) {
		// Plain-text bodies (e.g. from the router) are traced as strings.
		out, _ = json.Marshal(string(out))
	}
	return rec.Code, json.RawMessage(out)
}

// checkExpect compares a step's response with its expect clause.
func checkExpect(action string, ev TraceEvent, exp *Expect) []string {
	var errs []string
	mismatch := func(field string, want, got any) {
		errs = append(errs, fmt.Sprintf("expected %s %v, got %v", field, want, got))
	}

	wantStatus := exp.Status
	if wantStatus == 0 {
		wantStatus = http.StatusOK
	}
	if ev.Status != wantStatus {
		mismatch("status", wantStatus, ev.Status)
		return errs
	}

	if exp.Code != "" {
		var resp syncapi.ErrorResponse
		if err := json.Unmarshal(ev.Response, &resp); err != nil {
			return append(errs, fmt.Sprintf("decode error response: %v", err))
		}
		if resp.Error.Code != exp.Code {
			mismatch("code", exp.Code, resp.Error.Code)
		}
		return errs
	}

	checkInt := func(field string, want *int, got int) {
		if want != nil && *want != got {
			mismatch(field, *want, got)
		}
	}

	switch action {
	case StepPush:
		var resp syncapi.PushResponse
		if err := json.Unmarshal(ev.Response, &resp); err != nil {
			return append(errs, fmt.Sprintf("decode push response: %v", err))
		}
		checkInt("accepted", exp.Accepted, resp.Accepted)
		checkInt("applied", exp.Applied, resp.Applied)
		checkInt("queued", exp.Queued, resp.Queued)
		checkInt("skipped", exp.Skipped, resp.Skipped)

	case StepPull:
		var resp syncapi.PullResponse
		if err := json.Unmarshal(ev.Response, &resp); err != nil {
			return append(errs, fmt.Sprintf("decode pull response: %v", err))
		}
		checkInt("count", exp.Count, len(resp.Changes))
		if exp.Changes != nil {
			errs = append(errs, compareChanges(exp.Changes, resp.Changes)...)
		}

	case StepHealth:
		var resp syncapi.HealthResponse
		if err := json.Unmarshal(ev.Response, &resp); err != nil {
			return append(errs, fmt.Sprintf("decode health response: %v", err))
		}
		checkInt("pending_for_A", exp.PendingForA, resp.PendingForA)
		checkInt("pending_for_B", exp.PendingForB, resp.PendingForB)
	}
	return errs
}

// compareChanges matches pulled changes in order. Vectors compare after
// rounding to the detector's precision.
func compareChanges(want, got []syncapi.Change) []string {
	if len(want) != len(got) {
		return []string{fmt.Sprintf("expected %d changes, got %d", len(want), len(got))}
	}

	var errs []string
	for i := range want {
		if want[i].Name != got[i].Name {
			errs = append(errs, fmt.Sprintf("changes[%d]: expected name %q, got %q", i, want[i].Name, got[i].Name))
		}
		if !vectorsEqual(want[i].Location, got[i].Location) {
			errs = append(errs, fmt.Sprintf("changes[%d]: expected location %v, got %v", i, want[i].Location, got[i].Location))
		}
		if want[i].Rotation != nil && !vectorsEqual(want[i].Rotation, got[i].Rotation) {
			errs = append(errs, fmt.Sprintf("changes[%d]: expected rotation %v, got %v", i, want[i].Rotation, got[i].Rotation))
		}
		if want[i].Scale != nil && !vectorsEqual(want[i].Scale, got[i].Scale) {
			errs = append(errs, fmt.Sprintf("changes[%d]: expected scale %v, got %v", i, want[i].Scale, got[i].Scale))
		}
	}
	return errs
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if detect.Round(a[i]) != detect.Round(b[i]) {
			return false
		}
	}
	return true
}
