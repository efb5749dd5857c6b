package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/livelink/internal/coord"
	"github.com/roach88/livelink/internal/scene"
)

// Engine is the relay's view of side B.
//
// Implementations are expected to fail fast; any error is treated as a
// transient failure and never surfaces to relay callers.
type Engine interface {
	// ListObjects returns every object on the engine with its transform in
	// engine units.
	ListObjects(ctx context.Context) ([]scene.Object, error)

	// SetLocation moves the named object. It fails if the object does not
	// exist on the engine.
	SetLocation(ctx context.Context, name scene.Handle, loc mgl64.Vec3) error
}

// DefaultMaxPending is the default capacity of each relay queue.
const DefaultMaxPending = 4096

// PushResult summarizes how a pushed batch was handled.
type PushResult struct {
	BatchID  string
	Accepted int // records in the batch
	Applied  int // applied directly to the engine
	Queued   int // enqueued for a later pull
}

// Health is a point-in-time view of relay state.
type Health struct {
	PendingForAuthoring int
	PendingForEngine    int
	LastPoll            time.Time // zero until the first poll
	Polls               int64
}

// Service is the Sync Service.
//
// All mutable state is owned by the Service instance and guarded by mu.
// Push and Pull each run as a single critical section.
type Service struct {
	mu sync.Mutex

	engine       Engine
	clock        Clock
	pollInterval time.Duration
	lastPoll     time.Time
	polls        int64
	snapshot     *Snapshot

	toAuthoring *Queue
	toEngine    *Queue

	batchIDs BatchIDGenerator
	metrics  *Metrics
	logger   *slog.Logger

	maxPending int
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used by the poll rate gate.
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithPollInterval sets the minimum time between engine polls.
//
// Default: PollIntervalForFPS(DefaultPullFPS) (125ms).
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		s.pollInterval = d
	}
}

// WithMaxPending sets the capacity of each queue. Zero means unbounded.
//
// Default: 4096 (DefaultMaxPending).
func WithMaxPending(n int) Option {
	return func(s *Service) {
		s.maxPending = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBatchIDs sets the batch id generator.
func WithBatchIDs(g BatchIDGenerator) Option {
	return func(s *Service) {
		s.batchIDs = g
	}
}

// New creates a Service relaying to and from engine.
func New(engine Engine, opts ...Option) *Service {
	s := &Service{
		engine:       engine,
		clock:        SystemClock{},
		pollInterval: PollIntervalForFPS(DefaultPullFPS),
		snapshot:     BuildSnapshot(nil),
		batchIDs:     UUIDBatchIDs{},
		logger:       slog.Default(),
		maxPending:   DefaultMaxPending,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.toAuthoring = NewQueue(s.maxPending)
	s.toEngine = NewQueue(s.maxPending)

	return s
}

// Push accepts a batch of change records from source.
//
// Records from A are converted to engine units and applied immediately.
// A record whose apply fails is queued toward B and the batch continues.
// Records from B are already in authoring units and are queued toward A.
//
// Push fails only with a ValidationError, in which case no state changes.
func (s *Service) Push(ctx context.Context, source scene.Side, batch []scene.ChangeRecord) (PushResult, error) {
	if !source.Valid() {
		return PushResult{}, NewSourceError(source.String())
	}
	for i, rec := range batch {
		if rec.Name == "" {
			return PushResult{}, NewBatchError(fmt.Sprintf("changes[%d]: name is required", i))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := PushResult{
		BatchID:  s.batchIDs.Generate(),
		Accepted: len(batch),
	}
	log := s.logger.With("batch_id", result.BatchID, "source", source.String())
	s.metrics.Pushed.WithLabelValues(source.String()).Add(float64(len(batch)))

	switch source {
	case scene.SideAuthoring:
		for _, rec := range batch {
			rec.Origin = scene.SideAuthoring
			out := coord.RecordToEngine(rec)

			if err := s.engine.SetLocation(ctx, out.Name, out.Location); err != nil {
				log.Debug("apply failed, queueing for engine", "name", out.Name, "error", err)
				s.enqueue(scene.SideEngine, out)
				result.Queued++
				continue
			}
			// The engine now holds what A sent; record it so the next poll
			// does not hand it back to A.
			s.snapshot = s.snapshot.WithLocation(out.Name, out.Location)
			s.metrics.Applied.Inc()
			result.Applied++
		}

	case scene.SideEngine:
		records := make([]scene.ChangeRecord, len(batch))
		for i, rec := range batch {
			rec.Origin = scene.SideEngine
			records[i] = rec
		}
		s.enqueue(scene.SideAuthoring, records...)
		result.Queued = len(records)
	}

	log.Debug("push handled", "accepted", result.Accepted, "applied", result.Applied, "queued", result.Queued)
	return result, nil
}

// Pull drains and returns everything queued for target.
//
// A pull for A first polls the engine when the poll interval has elapsed,
// so engine-side changes are visible to this pull. The returned slice is
// never nil.
func (s *Service) Pull(ctx context.Context, target scene.Side) ([]scene.ChangeRecord, error) {
	if !target.Valid() {
		return nil, NewTargetError(target.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if target == scene.SideAuthoring {
		s.pollIfDue(ctx)
	}

	out := s.queueFor(target).Drain()
	s.metrics.Delivered.WithLabelValues(target.String()).Add(float64(len(out)))
	s.metrics.setPending(target, 0)

	if len(out) > 0 {
		s.logger.Debug("pull drained", "target", target.String(), "records", len(out))
	}
	return out, nil
}

// Health reports queue depths and poll state.
func (s *Service) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Health{
		PendingForAuthoring: s.toAuthoring.Len(),
		PendingForEngine:    s.toEngine.Len(),
		LastPoll:            s.lastPoll,
		Polls:               s.polls,
	}
}

// pollIfDue runs poll-and-diff unless the previous poll is more recent than
// the poll interval. Caller must hold s.mu.
func (s *Service) pollIfDue(ctx context.Context) {
	now := s.clock.Now()
	if !s.lastPoll.IsZero() && now.Sub(s.lastPoll) < s.pollInterval {
		s.metrics.Polls.WithLabelValues(PollResultSkipped).Inc()
		return
	}
	// Advance before querying so a failing engine is retried at the same
	// cadence as a healthy one.
	s.lastPoll = now
	s.polls++

	objs, err := s.engine.ListObjects(ctx)
	if err != nil {
		s.metrics.Polls.WithLabelValues(PollResultError).Inc()
		s.logger.Debug("engine poll failed", "error", err)
		return
	}
	s.metrics.Polls.WithLabelValues(PollResultOK).Inc()

	changed := s.snapshot.Changed(objs)
	next := BuildSnapshot(objs)
	s.snapshot = next

	if len(changed) == 0 {
		return
	}

	records := make([]scene.ChangeRecord, len(changed))
	for i, obj := range changed {
		records[i] = coord.RecordToAuthoring(scene.LocationRecord(obj, scene.SideEngine))
	}
	s.enqueue(scene.SideAuthoring, records...)
	s.logger.Debug("engine poll found changes", "changes", len(records), "objects", next.Len())
}

// enqueue appends records toward target, accounting metrics and evictions.
// Caller must hold s.mu.
func (s *Service) enqueue(target scene.Side, records ...scene.ChangeRecord) {
	q := s.queueFor(target)
	dropped := q.Enqueue(records...)

	s.metrics.Queued.WithLabelValues(target.String()).Add(float64(len(records)))
	if dropped > 0 {
		s.metrics.Dropped.WithLabelValues(target.String()).Add(float64(dropped))
		s.logger.Warn("queue full, evicted oldest records",
			"target", target.String(), "dropped", dropped, "capacity", s.maxPending)
	}
	s.metrics.setPending(target, q.Len())
}

func (s *Service) queueFor(side scene.Side) *Queue {
	if side == scene.SideAuthoring {
		return s.toAuthoring
	}
	return s.toEngine
}
