package relayclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/livelink/internal/httpapi"
	"github.com/roach88/livelink/internal/relay"
	"github.com/roach88/livelink/internal/scene"
	"github.com/roach88/livelink/internal/testutil"
)

// newRelay serves a real relay backed by a fake engine.
func newRelay(t *testing.T) (*Client, *testutil.FakeEngine, *testutil.FakeClock) {
	t.Helper()

	engine := testutil.NewFakeEngine()
	clock := testutil.NewFakeClock()
	svc := relay.New(engine,
		relay.WithClock(clock),
		relay.WithMetrics(relay.NewMetrics(prometheus.NewRegistry())),
		relay.WithBatchIDs(testutil.NewFixedBatchIDs("batch-client")),
	)
	srv := httptest.NewServer(httpapi.NewHandler(svc, httpapi.WithPort(30013)))
	t.Cleanup(srv.Close)

	return New(srv.URL + "/"), engine, clock
}

func TestClient_PushPullRoundTrip(t *testing.T) {
	c, engine, _ := newRelay(t)
	ctx := context.Background()
	engine.Place("Cube", mgl64.Vec3{0, 0, 0})

	resp, err := c.Push(ctx, scene.SideAuthoring, []scene.ChangeRecord{
		{Name: "Cube", Location: mgl64.Vec3{1, 2, 0.5}},
		{Name: "Ghost", Location: mgl64.Vec3{1, 1, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "batch-client", resp.BatchID)
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Applied)
	assert.Equal(t, 1, resp.Queued)

	loc, ok := engine.Location("Cube")
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{200, 100, 50}, loc)

	recs, err := c.Pull(ctx, scene.SideEngine)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, scene.Handle("Ghost"), recs[0].Name)
	assert.Equal(t, scene.SideAuthoring, recs[0].Origin)
}

func TestClient_PullAuthoring_SeesEngineMoves(t *testing.T) {
	c, engine, clock := newRelay(t)
	ctx := context.Background()
	engine.Place("Cube", mgl64.Vec3{0, 0, 0})

	_, err := c.Pull(ctx, scene.SideAuthoring)
	require.NoError(t, err)

	engine.Place("Cube", mgl64.Vec3{100, 0, 0})
	clock.Advance(time.Second)

	recs, err := c.Pull(ctx, scene.SideAuthoring)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 1.0, recs[0].Location[1], 1e-9)
	assert.Equal(t, scene.SideEngine, recs[0].Origin)
}

func TestClient_Health(t *testing.T) {
	c, _, _ := newRelay(t)
	ctx := context.Background()

	_, err := c.Push(ctx, scene.SideEngine, []scene.ChangeRecord{{Name: "Lamp"}})
	require.NoError(t, err)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 30013, h.Port)
	assert.Equal(t, 1, h.PendingForA)
	assert.Equal(t, 0, h.PendingForB)
	assert.Nil(t, h.LastPoll)
}

func TestClient_ValidationError(t *testing.T) {
	c, _, _ := newRelay(t)

	_, err := c.PullChanges(context.Background(), "C")

	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "INVALID_TARGET", e.Code)
	assert.Equal(t, http.StatusBadRequest, e.StatusCode)
}

func TestClient_NonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Health(context.Background())

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusBadGateway, e.StatusCode)
	assert.Empty(t, e.Code)
	assert.Equal(t, "upstream down", e.Message)
	assert.False(t, IsValidationError(err))
}
