package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mindplus/offloader/models"
)

func TestResults_OverwriteAndTakeOnce(t *testing.T) {
	r := NewResults()
	now := time.Now()

	r.Put(models.RenderResult{ChunkX: 1, ChunkZ: 2, TriangleCount: 1}, now)
	r.Put(models.RenderResult{ChunkX: 1, ChunkZ: 2, TriangleCount: 2}, now)

	assert.Equal(t, 1, r.Len())

	result, ok := r.Take("1,2")
	assert.True(t, ok)
	assert.Equal(t, int32(2), result.TriangleCount)

	_, ok = r.Take("1,2")
	assert.False(t, ok)
}

func TestResults_SweepEvictsExpired(t *testing.T) {
	r := NewResults()
	now := time.Now()

	r.Put(models.RenderResult{ChunkX: 1}, now.Add(-time.Minute))
	r.Put(models.RenderResult{ChunkX: 2}, now)

	evicted := r.Sweep(now, 30*time.Second, 50)

	assert.Equal(t, 1, evicted)

	_, ok := r.Take("2,0")
	assert.True(t, ok)
}

func TestResults_SweepTrimsOldestToHighWater(t *testing.T) {
	r := NewResults()
	now := time.Now()

	for i := int32(0); i < 5; i++ {
		r.Put(models.RenderResult{ChunkX: i}, now.Add(time.Duration(i)*time.Second))
	}

	evicted := r.Sweep(now.Add(5*time.Second), time.Hour, 2)

	assert.Equal(t, 3, evicted)
	assert.Equal(t, 2, r.Len())

	_, ok := r.Take("3,0")
	assert.True(t, ok)
	_, ok = r.Take("4,0")
	assert.True(t, ok)
}
