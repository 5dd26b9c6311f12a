package coordinator

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/execution/supervisor"
	"github.com/mindplus/offloader/models"
)

var (
	ErrUnknownWorker  = errors.New("unknown worker")
	ErrWorkerDisabled = errors.New("worker disabled")
	ErrNotInitialized = errors.New("coordinator not initialized")
)

// Supervisor launches and stops worker processes.
type Supervisor interface {
	Start(ctx context.Context, spec supervisor.WorkerSpec) error
	Stop(id string) error
	IsRunning(id string) bool
}

// PortCleaner frees ports left bound by stale processes.
type PortCleaner interface {
	Cleanup(ctx context.Context, ports []int) bool
}

// Launcher returns the command line of a built-in worker.
type Launcher func(kind models.WorkerKind, port int, args ...string) []string

// ExecutableLauncher launches workers through the worker command of the
// given executable. An empty executable resolves to the running binary.
func ExecutableLauncher(executable, host string) Launcher {
	if executable == "" {
		if self, err := os.Executable(); err == nil {
			executable = self
		} else {
			executable = os.Args[0]
		}
	}

	return func(kind models.WorkerKind, port int, args ...string) []string {
		cmd := []string{
			executable,
			"worker",
			"--kind", kind.String(),
			"--host", host,
			"--port", strconv.Itoa(port),
		}

		return append(cmd, args...)
	}
}

// workerStart is one worker a coordinator launches during Initialize.
type workerStart struct {
	id   string
	kind models.WorkerKind
	port int
	args []string
}

// MARK: - helpers

// reclaimPorts frees the ports of the given workers. Failure only degrades
// startup.
func reclaimPorts(ctx context.Context, cleaner PortCleaner, workers []workerStart, log *zap.Logger) {
	if cleaner == nil || len(workers) == 0 {
		return
	}

	ports := make([]int, 0, len(workers))
	for _, w := range workers {
		// zero picks an ephemeral port
		if w.port > 0 {
			ports = append(ports, w.port)
		}
	}

	if len(ports) == 0 {
		return
	}

	log.Info("checking for port conflicts", zap.Ints("ports", ports))

	if cleaner.Cleanup(ctx, ports) {
		log.Info("port cleanup completed")
	} else {
		log.Warn("some ports could not be freed, workers may fail to start")
	}
}

// startWorkers launches every worker and returns the ids that started.
func startWorkers(
	ctx context.Context,
	sv Supervisor,
	launch Launcher,
	workers []workerStart,
	log *zap.Logger,
) []string {
	started := make([]string, 0, len(workers))

	for _, w := range workers {
		spec := supervisor.WorkerSpec{
			ID:      w.id,
			Command: launch(w.kind, w.port, w.args...),
		}

		if err := sv.Start(ctx, spec); err != nil {
			log.Warn("failed to start worker", zap.String("worker", w.id), zap.Error(err))
			continue
		}

		started = append(started, w.id)
	}

	return started
}

// stopWorkers stops the given workers, most recently started first.
func stopWorkers(sv Supervisor, ids []string, log *zap.Logger) error {
	var err error

	for i := len(ids) - 1; i >= 0; i-- {
		if stopErr := sv.Stop(ids[i]); stopErr != nil {
			log.Warn("failed to stop worker", zap.String("worker", ids[i]), zap.Error(stopErr))
			err = multierr.Append(err, stopErr)
		}
	}

	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
