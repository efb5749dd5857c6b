package coord

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/livelink/internal/scene"
)

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

func TestToEngine_AxisSwapAndScale(t *testing.T) {
	got := ToEngine(mgl64.Vec3{1.0, 2.0, 0.5})
	assert.Equal(t, mgl64.Vec3{200, 100, 50}, got)
}

func TestToAuthoring_AxisSwapAndScale(t *testing.T) {
	got := ToAuthoring(mgl64.Vec3{200, 100, 50})
	assert.Equal(t, mgl64.Vec3{1.0, 2.0, 0.5}, got)
}

func TestZeroVector(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{}, ToEngine(mgl64.Vec3{}))
	assert.Equal(t, mgl64.Vec3{}, ToAuthoring(mgl64.Vec3{}))
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		v := mgl64.Vec3{
			(rng.Float64() - 0.5) * 2000,
			(rng.Float64() - 0.5) * 2000,
			(rng.Float64() - 0.5) * 2000,
		}

		back := ToAuthoring(ToEngine(v))
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, round5(v[axis]), round5(back[axis]), 1e-6, "axis %d of %v", axis, v)
		}

		forward := ToEngine(ToAuthoring(v))
		assert.True(t, forward.ApproxEqualThreshold(v, 1e-9), "engine round trip of %v gave %v", v, forward)
	}
}

func TestRecordConversion_PassesRotationAndScale(t *testing.T) {
	rot := mgl64.Vec3{0.1, 0.2, 0.3}
	scale := mgl64.Vec3{1, 2, 3}
	rec := scene.ChangeRecord{
		Name:     "Cube",
		Location: mgl64.Vec3{1, 2, 3},
		Rotation: &rot,
		Scale:    &scale,
		Origin:   scene.SideAuthoring,
	}

	out := RecordToEngine(rec)

	assert.Equal(t, mgl64.Vec3{200, 100, 300}, out.Location)
	assert.Equal(t, rot, *out.Rotation)
	assert.Equal(t, scale, *out.Scale)
	assert.Equal(t, scene.SideAuthoring, out.Origin)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, rec.Location, "input record must not be mutated")

	back := RecordToAuthoring(out)
	assert.Equal(t, rec.Location, back.Location)
}
