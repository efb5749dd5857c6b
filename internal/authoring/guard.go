package authoring

import (
	"sync"
	"sync/atomic"
)

// ApplyGuard marks that remote changes are being applied, so the local
// change hook can ignore what the apply itself causes.
//
// Begin returns a release func which must be deferred:
//
//	release := guard.Begin()
//	defer release()
//
// Nested and concurrent applies are counted; the guard stays active until
// every Begin has been released. Calling a release func more than once is
// harmless.
type ApplyGuard struct {
	active atomic.Int32
}

// Begin activates the guard.
func (g *ApplyGuard) Begin() (release func()) {
	g.active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { g.active.Add(-1) })
	}
}

// Active reports whether any apply is in progress.
func (g *ApplyGuard) Active() bool {
	return g.active.Load() > 0
}
