package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/text/unicode/norm"
)

// Handle is an object's name, unique within a scene and identical on both
// sides. There is no name-mapping layer.
type Handle string

// NewHandle returns the NFC-normalized handle for a raw name.
func NewHandle(name string) Handle {
	return Handle(norm.NFC.String(name))
}

// TransformState is an object's placement in the reporting side's units.
//
// Rotation is Euler: (x, y, z) radians on the authoring side and
// (pitch, yaw, roll) degrees on the engine side.
type TransformState struct {
	Location mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
}

// Object pairs a handle with its current transform.
type Object struct {
	Name      Handle
	Transform TransformState
}

// ChangeRecord is one object's new placement in transit between sides.
//
// Rotation and Scale are optional and are never coordinate converted.
type ChangeRecord struct {
	Name     Handle
	Location mgl64.Vec3
	Rotation *mgl64.Vec3
	Scale    *mgl64.Vec3
	Origin   Side
}

// LocationRecord builds a location-only record for an object.
func LocationRecord(obj Object, origin Side) ChangeRecord {
	return ChangeRecord{
		Name:     obj.Name,
		Location: obj.Transform.Location,
		Origin:   origin,
	}
}

// FullRecord builds a record carrying location, rotation and scale.
func FullRecord(obj Object, origin Side) ChangeRecord {
	rot := obj.Transform.Rotation
	scale := obj.Transform.Scale
	return ChangeRecord{
		Name:     obj.Name,
		Location: obj.Transform.Location,
		Rotation: &rot,
		Scale:    &scale,
		Origin:   origin,
	}
}
