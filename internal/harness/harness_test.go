package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/livelink/internal/syncapi"
)

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/engine_offline.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalTrace(scenario.Name, scenario.BatchID, first.Trace)
	require.NoError(t, err)
	b, err := MarshalTrace(scenario.Name, scenario.BatchID, second.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "expect_mismatch",
		Description: "push expectation that cannot hold",
		Steps: []Step{
			{
				Action:  StepPush,
				Source:  "A",
				Changes: []syncapi.Change{{Name: "Ghost", Location: []float64{0, 0, 0}}},
				Expect:  &Expect{Applied: intPtr(1)},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0] push: expected applied 1, got 0")
}

func TestRun_StatusMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "status_mismatch",
		Description: "pull with a bad target expected to succeed",
		Steps: []Step{
			{Action: StepPull, Target: "C", Expect: &Expect{}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected status 200, got 400")
}

func TestRun_ChangeMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "change_mismatch",
		Description: "pulled location differs from expectation",
		Steps: []Step{
			{Action: StepEnginePlace, Name: "Cube", Location: []float64{100, 0, 0}},
			{
				Action: StepPull,
				Target: "A",
				Expect: &Expect{Changes: []syncapi.Change{{Name: "Cube", Location: []float64{1, 0, 0}}}},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	// Engine x maps to authoring axis 1.
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected location [1 0 0], got [0 1 0]")
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "assertion_failures",
		Description: "every assertion type failing",
		Steps: []Step{
			{Action: StepEnginePlace, Name: "Cube", Location: []float64{1, 2, 3}},
		},
		Assertions: []Assertion{
			{Type: AssertEngineLocation, Name: "Cube", Location: []float64{0, 0, 0}},
			{Type: AssertEngineLocation, Name: "Ghost", Location: []float64{0, 0, 0}},
			{Type: AssertEngineAbsent, Name: "Cube"},
			{Type: AssertPending, Target: "B", Count: 1},
			{Type: AssertEngineCalls, List: intPtr(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "Cube at [1 2 3]")
	assert.Contains(t, result.Errors[1], "object not found on engine")
	assert.Contains(t, result.Errors[2], "Cube absent")
	assert.Contains(t, result.Errors[3], "1 records pending for B")
	assert.Contains(t, result.Errors[4], "1 list calls")
}

func TestMarshalTrace_Format(t *testing.T) {
	trace := []TraceEvent{
		{Seq: 1, Step: StepAdvance, Args: advanceArgs{Duration: "1s"}},
		{Seq: 2, Step: StepHealth, Status: 200, Response: []byte(`{"status":"ok"}`)},
	}

	data, err := MarshalTrace("format", "", trace)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Equal(t, []string{
		`{"scenario":"format"}`,
		`{"seq":1,"step":"advance","args":{"duration":"1s"}}`,
		`{"seq":2,"step":"health","status":200,"response":{"status":"ok"}}`,
	}, lines)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestRun_PlainTextResponseTracedAsString(t *testing.T) {
	h := New(&Scenario{})

	status, body := h.call(context.Background(), "DELETE", syncapi.RoutePush, nil)

	assert.Equal(t, 405, status)
	assert.True(t, strings.HasPrefix(string(body), `"`), string(body))
}

func intPtr(n int) *int { return &n }
