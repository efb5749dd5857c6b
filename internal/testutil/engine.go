package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/livelink/internal/scene"
)

// ErrEngineOffline is returned by FakeEngine while it is offline.
var ErrEngineOffline = errors.New("engine offline")

// ErrNoSuchObject is returned by FakeEngine.SetLocation for unknown objects.
var ErrNoSuchObject = errors.New("no such object")

// FakeEngine is an in-memory engine (side B) for tests.
//
// Objects are listed in name order so poll results are deterministic.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeEngine struct {
	mu        sync.Mutex
	objects   map[scene.Handle]scene.TransformState
	offline   bool
	listCalls int
	setCalls  int
}

// NewFakeEngine creates an empty, online engine.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{objects: make(map[scene.Handle]scene.TransformState)}
}

// Place creates or moves an object without going through SetLocation.
// This models an edit made directly in the engine.
func (e *FakeEngine) Place(name scene.Handle, loc mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.objects[name]
	if !ok {
		st.Scale = mgl64.Vec3{1, 1, 1}
	}
	st.Location = loc
	e.objects[name] = st
}

// PlaceTransform creates or replaces an object's full transform.
func (e *FakeEngine) PlaceTransform(name scene.Handle, st scene.TransformState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.objects[name] = st
}

// Remove deletes an object.
func (e *FakeEngine) Remove(name scene.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.objects, name)
}

// SetOffline makes every call fail with ErrEngineOffline while true.
func (e *FakeEngine) SetOffline(offline bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offline = offline
}

// Location returns an object's current location.
func (e *FakeEngine) Location(name scene.Handle) (mgl64.Vec3, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.objects[name]
	return st.Location, ok
}

// ListCalls returns how many times ListObjects was called.
func (e *FakeEngine) ListCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listCalls
}

// SetCalls returns how many times SetLocation was called.
func (e *FakeEngine) SetCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setCalls
}

// ListObjects implements relay.Engine.
func (e *FakeEngine) ListObjects(ctx context.Context) ([]scene.Object, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listCalls++
	if e.offline {
		return nil, ErrEngineOffline
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objs := make([]scene.Object, 0, len(e.objects))
	for name, st := range e.objects {
		objs = append(objs, scene.Object{Name: name, Transform: st})
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name < objs[j].Name })
	return objs, nil
}

// SetLocation implements relay.Engine.
func (e *FakeEngine) SetLocation(ctx context.Context, name scene.Handle, loc mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setCalls++
	if e.offline {
		return ErrEngineOffline
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	st, ok := e.objects[name]
	if !ok {
		return fmt.Errorf("set location %q: %w", name, ErrNoSuchObject)
	}
	st.Location = loc
	e.objects[name] = st
	return nil
}
