// Package authoring is a reference implementation of the authoring side (A)
// of the relay contract.
//
// A host embeds an Agent, calls LocalChanged from its change notification
// hook, and calls PullOnce (or Run) on its own timer. The Agent keeps its
// own change detector, separate from the relay's engine snapshot, and
// suppresses re-detection of the remote changes it applies.
package authoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/livelink/internal/detect"
	"github.com/roach88/livelink/internal/scene"
	"github.com/roach88/livelink/internal/syncapi"
)

// DefaultPullInterval is the Run loop's pull cadence.
const DefaultPullInterval = 100 * time.Millisecond

// Scene is the host's object store.
type Scene interface {
	// Apply writes rec onto the named local object and returns the
	// object's resulting transform. ok is false when no such object exists.
	Apply(ctx context.Context, rec scene.ChangeRecord) (state scene.TransformState, ok bool, err error)
}

// Relay is the subset of the relay surface the agent uses.
// Implemented by relayclient.Client.
type Relay interface {
	Push(ctx context.Context, source scene.Side, records []scene.ChangeRecord) (syncapi.PushResponse, error)
	Pull(ctx context.Context, target scene.Side) ([]scene.ChangeRecord, error)
}

// Agent pushes local edits to the relay and applies remote ones.
type Agent struct {
	scene    Scene
	relay    Relay
	detector *detect.Detector
	guard    ApplyGuard
	interval time.Duration
	logger   *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithPullInterval sets the Run loop's pull cadence.
func WithPullInterval(d time.Duration) Option {
	return func(a *Agent) {
		a.interval = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// NewAgent creates an agent applying to s and talking to r.
func NewAgent(s Scene, r Relay, opts ...Option) *Agent {
	a := &Agent{
		scene:    s,
		relay:    r,
		detector: detect.New(),
		interval: DefaultPullInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LocalChanged is the host's change hook. objs are the objects the host
// reports as touched, in authoring units. Objects whose transform actually
// changed are pushed as one batch with their full transform.
//
// While a remote apply is in progress the hook does nothing. It returns the
// number of records pushed.
func (a *Agent) LocalChanged(ctx context.Context, objs []scene.Object) (int, error) {
	if a.guard.Active() {
		return 0, nil
	}

	var batch []scene.ChangeRecord
	for _, obj := range objs {
		if a.detector.Observe(obj.Name, obj.Transform) {
			batch = append(batch, scene.FullRecord(obj, scene.SideAuthoring))
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}

	resp, err := a.relay.Push(ctx, scene.SideAuthoring, batch)
	if err != nil {
		// The detector already holds these states; forget them so the next
		// hook call retries the push.
		for _, rec := range batch {
			a.detector.Forget(rec.Name)
		}
		return 0, err
	}
	a.logger.Debug("pushed local changes", "batch_id", resp.BatchID, "records", len(batch))
	return len(batch), nil
}

// PullOnce pulls everything queued for A and applies it under the apply
// guard. Each applied state is recorded in the detector so it is never
// pushed back. Records naming unknown objects are skipped. It returns the
// number of records applied.
func (a *Agent) PullOnce(ctx context.Context) (int, error) {
	records, err := a.relay.Pull(ctx, scene.SideAuthoring)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	release := a.guard.Begin()
	defer release()

	applied := 0
	for _, rec := range records {
		state, ok, err := a.scene.Apply(ctx, rec)
		if err != nil {
			a.logger.Warn("apply remote change failed", "name", rec.Name, "error", err)
			continue
		}
		if !ok {
			a.logger.Debug("skipping change for unknown object", "name", rec.Name)
			continue
		}
		a.detector.Record(rec.Name, state)
		applied++
	}
	return applied, nil
}

// Run calls PullOnce every pull interval until ctx is done. Pull failures
// are logged and retried on the next tick.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.PullOnce(ctx); err != nil && ctx.Err() == nil {
				a.logger.Debug("pull failed", "error", err)
			}
		}
	}
}
