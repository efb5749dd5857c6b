package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/livelink/internal/scene"
)

func rec(name string, x float64) scene.ChangeRecord {
	return scene.ChangeRecord{Name: scene.Handle(name), Location: mgl64.Vec3{x, 0, 0}}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(0)

	q.Enqueue(rec("A", 1))
	q.Enqueue(rec("B", 2), rec("C", 3))

	out := q.Drain()
	require.Len(t, out, 3)
	assert.Equal(t, scene.Handle("A"), out[0].Name)
	assert.Equal(t, scene.Handle("B"), out[1].Name)
	assert.Equal(t, scene.Handle("C"), out[2].Name)
}

func TestQueue_DrainEmpties(t *testing.T) {
	q := NewQueue(0)
	q.Enqueue(rec("A", 1))

	first := q.Drain()
	second := q.Drain()

	assert.Len(t, first, 1)
	assert.NotNil(t, second, "drain of an empty queue returns an empty slice")
	assert.Empty(t, second)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_DrainedSliceIsOwnedByCaller(t *testing.T) {
	q := NewQueue(0)
	q.Enqueue(rec("A", 1))
	out := q.Drain()

	q.Enqueue(rec("B", 2))

	require.Len(t, out, 1)
	assert.Equal(t, scene.Handle("A"), out[0].Name)
}

func TestQueue_Bounded_EvictsOldest(t *testing.T) {
	q := NewQueue(3)

	dropped := q.Enqueue(rec("A", 1), rec("B", 2))
	assert.Equal(t, 0, dropped)

	dropped = q.Enqueue(rec("C", 3), rec("D", 4), rec("E", 5))
	assert.Equal(t, 2, dropped)

	out := q.Drain()
	require.Len(t, out, 3)
	assert.Equal(t, scene.Handle("C"), out[0].Name)
	assert.Equal(t, scene.Handle("E"), out[2].Name)
}

func TestQueue_EnqueueNothing(t *testing.T) {
	q := NewQueue(1)
	assert.Equal(t, 0, q.Enqueue())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewQueue(0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Enqueue(rec(fmt.Sprintf("obj-%d-%d", i, j), float64(j)))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len())
	assert.Len(t, q.Drain(), 1000)
}
