package supervisor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mindplus/offloader/internal/execution/supervisor"
	"github.com/mindplus/offloader/util"
)

func createSupervisor(t *testing.T) (*supervisor.Supervisor, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	s := supervisor.New(supervisor.Params{Log: zap.New(core)})

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.StopAll(ctx)
	})

	return s, logs
}

func sleeper(id string) supervisor.WorkerSpec {
	return supervisor.WorkerSpec{ID: id, Command: []string{"sleep", "30"}}
}

func pidOf(s *supervisor.Supervisor, id string) int {
	for _, w := range s.Workers() {
		if w.ID == id {
			return w.Pid
		}
	}

	return 0
}

func TestSupervisor_Start_IsRunning(t *testing.T) {
	s, _ := createSupervisor(t)

	err := s.Start(context.Background(), sleeper("render-0"))
	require.NoError(t, err)

	assert.True(t, s.IsRunning("render-0"))
	assert.True(t, util.IsProcessAlive(pidOf(s, "render-0")))
}

func TestSupervisor_Start_FailsOnDuplicateID(t *testing.T) {
	s, _ := createSupervisor(t)

	require.NoError(t, s.Start(context.Background(), sleeper("terrain-generator")))

	err := s.Start(context.Background(), sleeper("terrain-generator"))
	assert.ErrorIs(t, err, supervisor.ErrDuplicateWorker)
}

func TestSupervisor_Start_FailsOnEmptyCommand(t *testing.T) {
	s, _ := createSupervisor(t)

	err := s.Start(context.Background(), supervisor.WorkerSpec{ID: "empty"})
	assert.ErrorIs(t, err, supervisor.ErrEmptyCommand)
	assert.False(t, s.IsRunning("empty"))
}

func TestSupervisor_Start_FailsOnMissingBinary(t *testing.T) {
	s, _ := createSupervisor(t)

	err := s.Start(context.Background(), supervisor.WorkerSpec{
		ID:      "missing",
		Command: []string{"/nonexistent/worker-binary"},
	})
	assert.Error(t, err)
	assert.Empty(t, s.Workers())
}

func TestSupervisor_Start_FailsIfContextCancelled(t *testing.T) {
	s, _ := createSupervisor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Start(ctx, sleeper("cancelled"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSupervisor_LogsOutputWithWorkerID(t *testing.T) {
	s, logs := createSupervisor(t)

	err := s.Start(context.Background(), supervisor.WorkerSpec{
		ID:      "ai-processor",
		Command: []string{"sh", "-c", "echo out-line; echo err-line 1>&2"},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("out-line").Len() == 1 &&
			logs.FilterMessage("err-line").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	entry := logs.FilterMessage("out-line").All()[0]
	assert.Equal(t, "ai-processor", entry.ContextMap()["worker"])
}

func TestSupervisor_ExitedWorkerIsListedAsDead(t *testing.T) {
	s, logs := createSupervisor(t)

	err := s.Start(context.Background(), supervisor.WorkerSpec{
		ID:      "entity-spawner",
		Command: []string{"sh", "-c", "exit 3"},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("worker exited unexpectedly").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	entry := logs.FilterMessage("worker exited unexpectedly").All()[0]
	assert.EqualValues(t, 3, entry.ContextMap()["code"])

	assert.False(t, s.IsRunning("entity-spawner"))

	workers := s.Workers()
	require.Len(t, workers, 1)
	assert.Equal(t, "entity-spawner", workers[0].ID)
	assert.False(t, workers[0].Running)
	require.NotNil(t, workers[0].Exit)
	require.NotNil(t, workers[0].Exit.Code)
	assert.Equal(t, 3, *workers[0].Exit.Code)

	// the id can be reused, which replaces the dead entry
	require.NoError(t, s.Start(context.Background(), sleeper("entity-spawner")))

	workers = s.Workers()
	require.Len(t, workers, 1)
	assert.True(t, workers[0].Running)
	assert.Nil(t, workers[0].Exit)
}

func TestSupervisor_Stop_ForgetsDeadWorker(t *testing.T) {
	s, _ := createSupervisor(t)

	err := s.Start(context.Background(), supervisor.WorkerSpec{
		ID:      "world-generator",
		Command: []string{"sh", "-c", "exit 1"},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		workers := s.Workers()
		return len(workers) == 1 && !workers[0].Running
	}, 2*time.Second, 10*time.Millisecond)

	assert.NoError(t, s.Stop("world-generator"))
	assert.Empty(t, s.Workers())
}

func TestSupervisor_StoppedWorkerIsNotListed(t *testing.T) {
	s, _ := createSupervisor(t)

	require.NoError(t, s.Start(context.Background(), sleeper("render-2")))
	pid := pidOf(s, "render-2")

	require.NoError(t, s.Stop("render-2"))

	assert.Eventually(t, func() bool {
		return !util.IsProcessAlive(pid)
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, s.Workers())
}

func TestSupervisor_Stop_TerminatesProcess(t *testing.T) {
	s, _ := createSupervisor(t)

	require.NoError(t, s.Start(context.Background(), sleeper("render-1")))
	pid := pidOf(s, "render-1")

	require.NoError(t, s.Stop("render-1"))

	assert.False(t, s.IsRunning("render-1"))
	assert.Eventually(t, func() bool {
		return !util.IsProcessAlive(pid)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisor_Stop_UnknownIsNoop(t *testing.T) {
	s, _ := createSupervisor(t)

	assert.NoError(t, s.Stop("unknown"))
}

func TestSupervisor_StopAll_StopsEveryWorker(t *testing.T) {
	s, _ := createSupervisor(t)

	ids := []string{"biome-generator", "structure-generator", "terrain-generator"}
	pids := make([]int, 0, len(ids))

	for _, id := range ids {
		require.NoError(t, s.Start(context.Background(), sleeper(id)))
		pids = append(pids, pidOf(s, id))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, s.StopAll(ctx))
	assert.Empty(t, s.Workers())

	for _, pid := range pids {
		assert.False(t, util.IsProcessAlive(pid))
	}
}

func TestSupervisor_StopAll_IsIdempotent(t *testing.T) {
	s, _ := createSupervisor(t)

	require.NoError(t, s.Start(context.Background(), sleeper("chunk-preloader")))

	assert.NoError(t, s.StopAll(context.Background()))
	assert.NoError(t, s.StopAll(context.Background()))

	err := s.Start(context.Background(), sleeper("chunk-preloader"))
	assert.ErrorIs(t, err, supervisor.ErrClosed)
}
