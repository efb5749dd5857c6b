package relay

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/livelink/internal/detect"
	"github.com/roach88/livelink/internal/scene"
)

// Snapshot is the last engine state observed by a poll, keyed by handle.
//
// A Snapshot is never mutated after construction. Each poll builds a new
// one from the full poll result and the Service swaps it in whole.
type Snapshot struct {
	entries map[scene.Handle]detect.Fingerprint
}

// BuildSnapshot constructs a snapshot from a poll result. Objects without a
// name are ignored. When a handle repeats, the last occurrence wins.
func BuildSnapshot(objs []scene.Object) *Snapshot {
	entries := make(map[scene.Handle]detect.Fingerprint, len(objs))
	for _, obj := range objs {
		if obj.Name == "" {
			continue
		}
		entries[obj.Name] = detect.FingerprintOf(obj.Transform)
	}
	return &Snapshot{entries: entries}
}

// Changed returns, in input order, the objects whose rounded transform
// differs from the snapshot or that the snapshot has never seen.
func (s *Snapshot) Changed(objs []scene.Object) []scene.Object {
	var changed []scene.Object
	for _, obj := range objs {
		if obj.Name == "" {
			continue
		}
		prev, ok := s.lookup(obj.Name)
		if ok && prev == detect.FingerprintOf(obj.Transform) {
			continue
		}
		changed = append(changed, obj)
	}
	return changed
}

// WithLocation returns a new snapshot equal to s except that name is at loc
// (engine units). An existing entry keeps its rotation and scale; a new one
// gets zero rotation and unit scale. s itself is left untouched.
func (s *Snapshot) WithLocation(name scene.Handle, loc mgl64.Vec3) *Snapshot {
	entries := make(map[scene.Handle]detect.Fingerprint, s.Len()+1)
	if s != nil {
		for k, v := range s.entries {
			entries[k] = v
		}
	}

	fp, ok := s.lookup(name)
	if !ok {
		fp = detect.FingerprintOf(scene.TransformState{Scale: mgl64.Vec3{1, 1, 1}})
	}
	for i := 0; i < 3; i++ {
		fp[i] = detect.Round(loc[i])
	}
	entries[name] = fp
	return &Snapshot{entries: entries}
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

func (s *Snapshot) lookup(name scene.Handle) (detect.Fingerprint, bool) {
	if s == nil {
		return detect.Fingerprint{}, false
	}
	fp, ok := s.entries[name]
	return fp, ok
}
