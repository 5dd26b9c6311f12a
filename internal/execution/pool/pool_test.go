package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/models"
)

func createPool(t *testing.T, workers WorkerController, modify ...func(*Config)) *Pool {
	config := DefaultConfig()
	config.QueueCapacity = 10
	config.MaxWorkers = 2
	config.PollTimeout = 10 * time.Millisecond
	config.StatsInterval = 0

	for _, fn := range modify {
		fn(&config)
	}

	p, err := New(Params{
		Config:  config,
		Workers: workers,
		Log:     zap.NewNop(),
	})
	require.NoError(t, err)

	return p
}

func fillQueue(p *Pool, n int) {
	for i := 0; i < n; i++ {
		p.Submit(models.NewTask(int32(i), 0, 64))
	}
}

func TestPool_ScalesUpToMax(t *testing.T) {
	workers := NewMockWorkerController(t)
	p := createPool(t, workers)

	workers.EXPECT().StartWorker(mock.Anything, "render-0").Return(nil).Once()
	workers.EXPECT().StartWorker(mock.Anything, "render-1").Return(nil).Once()

	fillQueue(p, 9)

	for i := 0; i < 5; i++ {
		p.adjust(context.Background())
	}

	assert.Equal(t, 2, p.Stats().ActiveWorkers)
}

func TestPool_UnhealthyKeepsOneWorker(t *testing.T) {
	workers := NewMockWorkerController(t)
	p := createPool(t, workers)

	workers.EXPECT().StartWorker(mock.Anything, "render-0").Return(nil).Once()
	workers.EXPECT().StartWorker(mock.Anything, "render-1").Return(nil).Once()
	workers.EXPECT().StopWorker("render-1").Return(nil).Once()

	fillQueue(p, 9)
	p.adjust(context.Background())
	p.adjust(context.Background())
	require.Equal(t, 2, p.Stats().ActiveWorkers)

	p.Monitor().Observe(5)
	p.adjust(context.Background())
	p.adjust(context.Background())

	stats := p.Stats()
	assert.Equal(t, 1, stats.ActiveWorkers)
	assert.False(t, stats.MultiProcessEnabled)
}

func TestPool_DisabledDrainsWorkers(t *testing.T) {
	workers := NewMockWorkerController(t)
	p := createPool(t, workers)

	workers.EXPECT().StartWorker(mock.Anything, "render-0").Return(nil).Once()
	workers.EXPECT().StopWorker("render-0").Return(nil).Once()

	p.adjust(context.Background())
	require.Equal(t, 1, p.Stats().ActiveWorkers)

	p.SetEnabled(false)
	p.adjust(context.Background())

	assert.Equal(t, 0, p.Stats().ActiveWorkers)
}

func TestPool_StartFailureHoldsCount(t *testing.T) {
	workers := NewMockWorkerController(t)
	p := createPool(t, workers)

	workers.EXPECT().StartWorker(mock.Anything, "render-0").Return(assert.AnError)

	p.adjust(context.Background())

	assert.Equal(t, 0, p.Stats().ActiveWorkers)
}

func TestPool_ProcessesSubmittedTasks(t *testing.T) {
	p := createPool(t, nil, func(c *Config) {
		c.MonitorInterval = time.Hour
	})

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop(context.Background())

	p.Submit(models.NewTask(3, -2, 70))

	var result models.RenderResult
	assert.Eventually(t, func() bool {
		var ok bool
		result, ok = p.GetResult("3,-2")
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, result.VertexData, 1024)
	assert.Equal(t, byte(3), result.VertexData[0])
	assert.Len(t, result.LightData, 256)
	assert.Equal(t, byte(0xFE), result.LightData[0])
	assert.Equal(t, int32(256), result.TriangleCount)

	// at most once
	_, ok := p.GetResult("3,-2")
	assert.False(t, ok)
}

func TestPool_DropsTasksWhileDegraded(t *testing.T) {
	p := createPool(t, nil, func(c *Config) {
		c.MonitorInterval = time.Hour
	})

	p.Monitor().Observe(5)

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop(context.Background())

	p.Submit(models.NewTask(1, 1, 64))

	assert.Eventually(t, func() bool {
		return p.Stats().QueueDepth == 0
	}, time.Second, 5*time.Millisecond)

	_, ok := p.GetResult("1,1")
	assert.False(t, ok)
}

func TestPool_Deliver(t *testing.T) {
	p := createPool(t, nil)

	p.Deliver(models.RenderResult{ChunkX: 8, ChunkZ: 9})

	assert.Equal(t, 1, p.Stats().PendingResults)

	_, ok := p.GetResult("8,9")
	assert.True(t, ok)
}

func TestPool_SimulationDistanceIsClamped(t *testing.T) {
	p := createPool(t, nil)

	assert.Equal(t, 12, p.SimulationDistance())
	assert.Equal(t, 4, p.SetSimulationDistance(1))
	assert.Equal(t, 32, p.SetSimulationDistance(100))
	assert.Equal(t, 16, p.SetSimulationDistance(16))
	assert.Equal(t, 16, p.Stats().SimulationDistance)
}

func TestPool_StopIsIdempotent(t *testing.T) {
	p := createPool(t, nil)

	require.NoError(t, p.Start(context.Background()))

	assert.NoError(t, p.Stop(context.Background()))
	assert.NoError(t, p.Stop(context.Background()))
}

func TestPool_LatestResultWinsAndIsClaimedOnce(t *testing.T) {
	config := DefaultConfig()
	config.PollTimeout = 10 * time.Millisecond
	config.MonitorInterval = time.Hour
	config.StatsInterval = 0

	sentinel := make(chan struct{})

	// the triangle count carries the camera height of the task
	p, err := New(Params{
		Config: config,
		Processor: ProcessorFunc(func(_ context.Context, task models.RenderTask) (*models.RenderResult, error) {
			if task.ChunkX == 9 {
				close(sentinel)
				return nil, nil
			}
			return &models.RenderResult{ChunkX: task.ChunkX, ChunkZ: task.ChunkZ, TriangleCount: int32(task.CameraY)}, nil
		}),
		Log: zap.NewNop(),
	})
	require.NoError(t, err)

	p.Submit(models.NewTask(0, 0, 1))
	p.Submit(models.NewTask(0, 0, 2))
	p.Submit(models.NewTask(9, 9, 0))

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop(context.Background())

	// tasks are processed in order, so both (0,0) results are stored
	select {
	case <-sentinel:
	case <-time.After(time.Second):
		t.Fatal("tasks were not processed")
	}

	result, ok := p.GetResult("0,0")
	require.True(t, ok)
	assert.Equal(t, int32(2), result.TriangleCount)

	_, ok = p.GetResult("0,0")
	assert.False(t, ok)
}
