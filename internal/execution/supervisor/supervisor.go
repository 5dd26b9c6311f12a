package supervisor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Params struct {
	// Hub receives a message for every worker that exits without being
	// stopped. Optional.
	Hub *sentry.Hub

	// Log is the logger to use for the supervisor
	Log *zap.Logger
}

// Supervisor launches worker processes, relays their output to the log and
// tracks their liveness. Exited workers are not restarted; they stay listed
// as dead until stopped or started again.
type Supervisor struct {
	mu      sync.Mutex
	workers map[string]*handle
	dead    map[string]*handle
	closed  bool

	// readers tracks output and exit goroutines of every launched worker
	readers conc.WaitGroup

	hub *sentry.Hub
	log *zap.Logger
}

func New(params Params) *Supervisor {
	return &Supervisor{
		workers: make(map[string]*handle),
		dead:    make(map[string]*handle),
		hub:     params.Hub,
		log:     params.Log.Named("supervisor"),
	}
}

// Start launches the worker described by spec.
func (s *Supervisor) Start(ctx context.Context, spec WorkerSpec) error {
	log := s.log.With(zap.String("worker", spec.ID))

	log.Debug("starting worker", zap.Strings("command", spec.Command), zap.String("cwd", spec.Cwd))

	// exit early if the context is already cancelled
	if ctx.Err() != nil {
		return fmt.Errorf("failed to start worker %s: %w", spec.ID, ctx.Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if _, ok := s.workers[spec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateWorker, spec.ID)
	}

	h, err := launch(spec)
	if err != nil {
		log.Warn("failed to start worker", zap.Error(err))
		return fmt.Errorf("failed to start worker %s: %w", spec.ID, err)
	}

	s.workers[spec.ID] = h
	delete(s.dead, spec.ID)

	log = log.With(zap.Int("pid", h.pid))

	s.readers.Go(func() { h.pipeOutput(log) })
	s.readers.Go(func() { s.reap(h, log) })

	log.Info("started worker")

	return nil
}

// Stop asks the worker to terminate and deregisters it. Unknown ids are
// ignored, dead ones are forgotten. The process is not killed if it
// ignores the request.
func (s *Supervisor) Stop(id string) error {
	s.mu.Lock()
	h, ok := s.workers[id]
	if ok {
		delete(s.workers, id)
	}
	delete(s.dead, id)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	return s.stop(h)
}

// StopAll stops every worker and waits, bounded by ctx, for their output
// readers to drain. Later calls are no-ops.
func (s *Supervisor) StopAll(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true

	handles := make([]*handle, 0, len(s.workers))
	for id, h := range s.workers {
		handles = append(handles, h)
		delete(s.workers, id)
	}
	clear(s.dead)
	s.mu.Unlock()

	var err error
	for _, h := range handles {
		err = multierr.Append(err, s.stop(h))
	}

	done := make(chan struct{})
	go func() {
		s.readers.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("timed out waiting for worker output", zap.Error(ctx.Err()))
		err = multierr.Append(err, fmt.Errorf("waiting for workers: %w", ctx.Err()))
	}

	s.log.Info("stopped all workers", zap.Int("count", len(handles)))

	return err
}

// IsRunning reports whether a registered worker's process is alive.
func (s *Supervisor) IsRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.workers[id]

	return ok && h.alive.Load()
}

// Workers returns the registered and the dead workers sorted by id.
func (s *Supervisor) Workers() []WorkerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]WorkerInfo, 0, len(s.workers)+len(s.dead))
	for _, h := range s.workers {
		infos = append(infos, h.info())
	}
	for _, h := range s.dead {
		infos = append(infos, h.info())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})

	return infos
}

// MARK: - internal

func (s *Supervisor) stop(h *handle) error {
	h.stopping.Store(true)

	// terminate should report success if the process exited
	// before the request arrived
	select {
	case <-h.exited:
		return nil
	default:
	}

	s.log.Info("terminating worker", zap.String("worker", h.id), zap.Int("pid", h.pid))

	if err := terminate(h.pid); err != nil {
		select {
		case <-h.exited:
			return nil
		default:
		}

		return fmt.Errorf("failed to terminate worker %s: %w", h.id, err)
	}

	return nil
}

// reap waits for the process to exit, logs the exit status and
// deregisters the handle unless it has been replaced. A handle that exits
// without being stopped is kept as dead.
func (s *Supervisor) reap(h *handle, log *zap.Logger) {
	h.wait()

	fields := []zap.Field{}
	if h.status.Code != nil {
		fields = append(fields, zap.Int("code", *h.status.Code))
	}
	if h.status.Signal != nil {
		fields = append(fields, zap.Int("signal", *h.status.Signal))
	}

	s.mu.Lock()
	if current, ok := s.workers[h.id]; ok && current == h {
		delete(s.workers, h.id)
		if !h.stopping.Load() {
			s.dead[h.id] = h
		}
	}
	s.mu.Unlock()

	if h.stopping.Load() {
		log.Info("worker exited", fields...)
		return
	}

	log.Warn("worker exited unexpectedly", fields...)

	if s.hub != nil {
		s.hub.CaptureMessage(fmt.Sprintf("worker %s exited unexpectedly", h.id))
	}
}
