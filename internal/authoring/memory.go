package authoring

import (
	"context"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/livelink/internal/scene"
)

// MemoryScene is an in-memory Scene.
//
// An optional change hook is called after every Apply with the applied
// object, the way a host fires its change notification for any edit,
// remote or local.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemoryScene struct {
	mu      sync.Mutex
	objects map[scene.Handle]scene.TransformState
	onApply func(ctx context.Context, obj scene.Object)
}

// NewMemoryScene creates an empty scene.
func NewMemoryScene() *MemoryScene {
	return &MemoryScene{objects: make(map[scene.Handle]scene.TransformState)}
}

// OnApply sets the hook called after each successful Apply.
func (s *MemoryScene) OnApply(hook func(ctx context.Context, obj scene.Object)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onApply = hook
}

// Put creates or replaces an object.
func (s *MemoryScene) Put(obj scene.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Name] = obj.Transform
}

// Get returns an object's transform.
func (s *MemoryScene) Get(name scene.Handle) (scene.TransformState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.objects[name]
	return st, ok
}

// Objects returns every object sorted by name.
func (s *MemoryScene) Objects() []scene.Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]scene.Object, 0, len(s.objects))
	for name, st := range s.objects {
		out = append(out, scene.Object{Name: name, Transform: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apply writes the record's location and, when present, rotation and scale.
func (s *MemoryScene) Apply(ctx context.Context, rec scene.ChangeRecord) (scene.TransformState, bool, error) {
	s.mu.Lock()
	st, ok := s.objects[rec.Name]
	if !ok {
		s.mu.Unlock()
		return scene.TransformState{}, false, nil
	}
	st.Location = rec.Location
	if rec.Rotation != nil {
		st.Rotation = *rec.Rotation
	}
	if rec.Scale != nil {
		st.Scale = *rec.Scale
	}
	s.objects[rec.Name] = st
	hook := s.onApply
	s.mu.Unlock()

	// The hook runs unlocked; it may read the scene back.
	if hook != nil {
		hook(ctx, scene.Object{Name: rec.Name, Transform: st})
	}
	return st, true, nil
}

// Move sets an object's location as a local edit would. It returns false
// when no such object exists.
func (s *MemoryScene) Move(name scene.Handle, loc mgl64.Vec3) (scene.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.objects[name]
	if !ok {
		return scene.Object{}, false
	}
	st.Location = loc
	s.objects[name] = st
	return scene.Object{Name: name, Transform: st}, true
}
