// Package detect decides whether an observed transform is a real change.
//
// Host environments report transforms with floating-point jitter, so every
// comparison is made on a Fingerprint: the nine transform scalars rounded to
// five decimal places. Each side keeps its own Detector; caches are never
// shared between sides.
package detect

import (
	"math"
	"sync"

	"github.com/roach88/livelink/internal/scene"
)

// Precision is the number of decimal places kept when comparing transforms.
const Precision = 5

var scale = math.Pow10(Precision)

// Fingerprint is a transform rounded to Precision decimal places, in
// location, rotation, scale order.
type Fingerprint [9]float64

// Round rounds v to Precision decimal places.
func Round(v float64) float64 {
	return math.Round(v*scale) / scale
}

// FingerprintOf computes the rounded fingerprint of a transform.
func FingerprintOf(t scene.TransformState) Fingerprint {
	var fp Fingerprint
	for i := 0; i < 3; i++ {
		fp[i] = Round(t.Location[i])
		fp[3+i] = Round(t.Rotation[i])
		fp[6+i] = Round(t.Scale[i])
	}
	return fp
}

// Detector remembers the last fingerprint seen per object.
//
// Thread-safety: all methods are safe for concurrent use.
type Detector struct {
	mu   sync.Mutex
	seen map[scene.Handle]Fingerprint
}

// New creates an empty detector.
func New() *Detector {
	return &Detector{seen: make(map[scene.Handle]Fingerprint)}
}

// Observe reports whether state differs from the last state recorded for
// name. An unknown name is always a change. On change the cache is updated.
func (d *Detector) Observe(name scene.Handle, state scene.TransformState) bool {
	fp := FingerprintOf(state)

	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.seen[name]; ok && prev == fp {
		return false
	}
	d.seen[name] = fp
	return true
}

// Record sets the cached state for name without reporting a change.
// Used after a remote update is applied so it is not re-detected.
func (d *Detector) Record(name scene.Handle, state scene.TransformState) {
	fp := FingerprintOf(state)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[name] = fp
}

// Forget drops the cached state for name.
func (d *Detector) Forget(name scene.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, name)
}

// Len returns the number of tracked objects.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
