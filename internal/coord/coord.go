// Package coord converts locations between the authoring and engine
// coordinate conventions.
//
// The authoring side measures in meters; the engine measures in
// centimeters with its first two axes swapped relative to the authoring
// side. The mapping is a fixed linear map and is not configurable.
//
// Only locations are converted. Rotation and scale pass through as-is.
package coord

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/livelink/internal/scene"
)

// EngineUnitsPerMeter is the engine's unit scale relative to the authoring side.
const EngineUnitsPerMeter = 100.0

// ToEngine maps an authoring location to engine units.
//
//	engine.x = authoring[1] * 100
//	engine.y = authoring[0] * 100
//	engine.z = authoring[2] * 100
func ToEngine(loc mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		loc[1] * EngineUnitsPerMeter,
		loc[0] * EngineUnitsPerMeter,
		loc[2] * EngineUnitsPerMeter,
	}
}

// ToAuthoring maps an engine location to authoring units. It is the inverse
// of ToEngine up to floating-point rounding.
func ToAuthoring(loc mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		loc[1] / EngineUnitsPerMeter,
		loc[0] / EngineUnitsPerMeter,
		loc[2] / EngineUnitsPerMeter,
	}
}

// RecordToEngine returns a copy of rec with its location in engine units.
func RecordToEngine(rec scene.ChangeRecord) scene.ChangeRecord {
	rec.Location = ToEngine(rec.Location)
	return rec
}

// RecordToAuthoring returns a copy of rec with its location in authoring units.
func RecordToAuthoring(rec scene.ChangeRecord) scene.ChangeRecord {
	rec.Location = ToAuthoring(rec.Location)
	return rec
}
