package relay

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/livelink/internal/scene"
)

func obj(name string, x, y, z float64) scene.Object {
	return scene.Object{
		Name: scene.Handle(name),
		Transform: scene.TransformState{
			Location: mgl64.Vec3{x, y, z},
			Scale:    mgl64.Vec3{1, 1, 1},
		},
	}
}

func TestSnapshot_EmptySeesEverythingAsNew(t *testing.T) {
	s := BuildSnapshot(nil)

	changed := s.Changed([]scene.Object{obj("A", 1, 2, 3), obj("B", 0, 0, 0)})
	assert.Len(t, changed, 2)
}

func TestSnapshot_UnchangedObjectsAreSkipped(t *testing.T) {
	objs := []scene.Object{obj("A", 1, 2, 3), obj("B", 4, 5, 6)}
	s := BuildSnapshot(objs)

	assert.Empty(t, s.Changed(objs))
}

func TestSnapshot_ApproximateMatch(t *testing.T) {
	s := BuildSnapshot([]scene.Object{obj("A", 100, 200, 300)})

	assert.Empty(t, s.Changed([]scene.Object{obj("A", 100.000001, 200, 300)}))

	changed := s.Changed([]scene.Object{obj("A", 100.5, 200, 300)})
	require.Len(t, changed, 1)
	assert.Equal(t, scene.Handle("A"), changed[0].Name)
}

func TestSnapshot_RotationChangeDetected(t *testing.T) {
	base := obj("A", 1, 1, 1)
	s := BuildSnapshot([]scene.Object{base})

	turned := base
	turned.Transform.Rotation = mgl64.Vec3{0, 90, 0}
	assert.Len(t, s.Changed([]scene.Object{turned}), 1)
}

func TestSnapshot_IgnoresUnnamed(t *testing.T) {
	s := BuildSnapshot([]scene.Object{obj("", 1, 1, 1), obj("A", 0, 0, 0)})

	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.Changed([]scene.Object{obj("", 9, 9, 9)}))
}

func TestSnapshot_RebuildDropsVanishedObjects(t *testing.T) {
	s := BuildSnapshot([]scene.Object{obj("A", 0, 0, 0), obj("B", 0, 0, 0)})
	next := BuildSnapshot([]scene.Object{obj("A", 0, 0, 0)})

	assert.Empty(t, s.Changed([]scene.Object{obj("B", 0, 0, 0)}))
	assert.Len(t, next.Changed([]scene.Object{obj("B", 0, 0, 0)}), 1, "B is new again after the rebuild")
	assert.Equal(t, 2, s.Len(), "the previous snapshot is never mutated")
}

func TestSnapshot_NilSafe(t *testing.T) {
	var s *Snapshot
	assert.Equal(t, 0, s.Len())
	assert.Len(t, s.Changed([]scene.Object{obj("A", 0, 0, 0)}), 1)
}

func TestSnapshot_WithLocation_KeepsRotationAndScale(t *testing.T) {
	base := obj("A", 0, 0, 0)
	base.Transform.Rotation = mgl64.Vec3{0, 90, 0}
	base.Transform.Scale = mgl64.Vec3{2, 2, 2}
	s := BuildSnapshot([]scene.Object{base, obj("B", 5, 5, 5)})

	next := s.WithLocation("A", mgl64.Vec3{200, 100, 50})

	moved := base
	moved.Transform.Location = mgl64.Vec3{200, 100, 50}
	assert.Empty(t, next.Changed([]scene.Object{moved, obj("B", 5, 5, 5)}))

	// The original snapshot still holds the old location.
	assert.Len(t, s.Changed([]scene.Object{moved}), 1)
	assert.Equal(t, 2, next.Len())
}

func TestSnapshot_WithLocation_NewEntryDefaults(t *testing.T) {
	next := BuildSnapshot(nil).WithLocation("A", mgl64.Vec3{1, 2, 3})

	assert.Empty(t, next.Changed([]scene.Object{obj("A", 1, 2, 3)}), "zero rotation and unit scale")

	turned := obj("A", 1, 2, 3)
	turned.Transform.Rotation = mgl64.Vec3{0, 0, 45}
	assert.Len(t, next.Changed([]scene.Object{turned}), 1)
}

func TestSnapshot_WithLocation_NilReceiver(t *testing.T) {
	var s *Snapshot
	next := s.WithLocation("A", mgl64.Vec3{1, 2, 3})
	assert.Equal(t, 1, next.Len())
}
