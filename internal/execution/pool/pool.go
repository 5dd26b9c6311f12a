package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/execution/perf"
	"github.com/mindplus/offloader/models"
)

// WorkerController starts and stops the render worker processes the pool
// scales over.
type WorkerController interface {
	StartWorker(ctx context.Context, id string) error
	StopWorker(id string) error
}

// PoolState is a point-in-time view of the pool.
type PoolState struct {
	ActiveWorkers       int     `json:"activeWorkers"`
	QueueDepth          int     `json:"queueDepth"`
	PendingResults      int     `json:"pendingResults"`
	FPS                 float64 `json:"fps"`
	MultiProcessEnabled bool    `json:"multiProcessEnabled"`
	SimulationDistance  int     `json:"simulationDistance"`
}

type Params struct {
	Config Config

	// Monitor is the frame rate signal. If nil, one is built from
	// Config.Perf.
	Monitor *perf.Monitor

	// Workers applies scaling decisions. If nil, scaling only tracks the
	// desired count.
	Workers WorkerController

	// Processor handles dequeued tasks. Defaults to LocalProcessor.
	Processor Processor

	Log *zap.Logger
}

// Pool queues render tasks, processes them while the host is healthy and
// scales the render workers with queue pressure and frame rate.
type Pool struct {
	config    Config
	queue     *Queue
	results   *Results
	policy    *Policy
	monitor   *perf.Monitor
	workers   WorkerController
	processor Processor

	// active is only written by the monitor loop and Stop
	activeMu sync.Mutex
	active   int

	enabled  atomic.Bool
	distance atomic.Int32

	running atomic.Bool
	cancel  context.CancelFunc
	wg      conc.WaitGroup

	log *zap.Logger
}

func New(params Params) (*Pool, error) {
	config := params.Config

	monitor := params.Monitor
	if monitor == nil {
		var err error
		monitor, err = perf.New(perf.Params{Config: config.Perf, Log: params.Log})
		if err != nil {
			return nil, fmt.Errorf("error creating monitor: %w", err)
		}
	}

	processor := params.Processor
	if processor == nil {
		processor = LocalProcessor{}
	}

	p := &Pool{
		config:  config,
		queue:   NewQueue(config.QueueCapacity),
		results: NewResults(),
		policy: NewPolicy(
			WithMaxWorkers(config.MaxWorkers),
			WithScaleUpRate(config.ScaleUpRate),
			WithSoftDegradeRate(config.SoftDegradeRate),
		),
		monitor:   monitor,
		workers:   params.Workers,
		processor: processor,
		log:       params.Log.Named("pool"),
	}

	p.enabled.Store(config.Enabled)
	p.distance.Store(int32(clampDistance(config.SimulationDistance)))

	return p, nil
}

// Start launches the dispatcher, monitor, sweep and stats loops.
func (p *Pool) Start(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return nil
	}

	// loops outlive the start context
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel

	p.wg.Go(func() { p.dispatchLoop(loopCtx) })
	p.wg.Go(func() { p.tickLoop(loopCtx, p.config.MonitorInterval, p.adjust) })
	p.wg.Go(func() { p.tickLoop(loopCtx, p.config.SweepInterval, p.sweep) })

	if p.config.StatsInterval > 0 {
		p.wg.Go(func() { p.tickLoop(loopCtx, p.config.StatsInterval, p.logStats) })
	}

	p.log.Info("pool started",
		zap.Int("simulation_distance", p.SimulationDistance()),
		zap.Int("max_workers", p.config.MaxWorkers),
	)

	return nil
}

// Stop ends the loops, waits for in-flight work and stops every worker.
func (p *Pool) Stop(ctx context.Context) error {
	if !p.running.CompareAndSwap(true, false) {
		return nil
	}

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.log.Warn("timed out waiting for pool loops", zap.Error(ctx.Err()))
	}

	p.scaleTo(ctx, 0)

	p.log.Info("pool stopped")

	return nil
}

// FreeSlots is the number of tasks the queue takes before it starts
// evicting.
func (p *Pool) FreeSlots() int {
	return max(p.queue.Cap()-p.queue.Len(), 0)
}

// Submit enqueues a task, evicting the oldest one when the queue is full.
func (p *Pool) Submit(task models.Task) {
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now()
	}

	if evicted, ok := p.queue.Push(task); ok {
		p.log.Debug("queue full, dropped oldest task", zap.String("key", evicted.Key()))
	}
}

// GetResult returns the result for key at most once.
func (p *Pool) GetResult(key string) (models.RenderResult, bool) {
	return p.results.Take(key)
}

// Deliver stores a result produced outside the dispatcher.
func (p *Pool) Deliver(result models.RenderResult) {
	p.results.Put(result, time.Now())
}

// RecordFrame feeds a host frame timestamp to the monitor.
func (p *Pool) RecordFrame(ts time.Time) {
	p.monitor.Record(ts)
}

func (p *Pool) Monitor() *perf.Monitor {
	return p.monitor
}

func (p *Pool) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

func (p *Pool) Enabled() bool {
	return p.enabled.Load()
}

// MultiProcessEnabled reports whether tasks are currently offloaded.
func (p *Pool) MultiProcessEnabled() bool {
	return p.enabled.Load() && p.monitor.IsHealthy()
}

// SetSimulationDistance clamps d to [4, 32] and stores it.
func (p *Pool) SetSimulationDistance(d int) int {
	clamped := clampDistance(d)
	p.distance.Store(int32(clamped))

	return clamped
}

func (p *Pool) SimulationDistance() int {
	return int(p.distance.Load())
}

func (p *Pool) Stats() PoolState {
	return PoolState{
		ActiveWorkers:       p.activeWorkers(),
		QueueDepth:          p.queue.Len(),
		PendingResults:      p.results.Len(),
		FPS:                 p.monitor.CurrentRate(),
		MultiProcessEnabled: p.MultiProcessEnabled(),
		SimulationDistance:  p.SimulationDistance(),
	}
}

// MARK: - loops

func (p *Pool) dispatchLoop(ctx context.Context) {
	for ctx.Err() == nil {
		task, ok := p.queue.Poll(ctx, p.config.PollTimeout)
		if !ok {
			continue
		}

		if !p.MultiProcessEnabled() {
			p.log.Debug("offload suspended, dropping task", zap.String("key", task.Key()))
			continue
		}

		p.process(ctx, task)
	}
}

func (p *Pool) process(ctx context.Context, task models.Task) {
	renderTask := models.RenderTask{
		ChunkX:  task.CoordX,
		ChunkZ:  task.CoordZ,
		CameraY: task.Extra,
	}

	result, err := p.processor.Process(ctx, renderTask)
	if err != nil {
		p.log.Debug("error processing task", zap.String("key", task.Key()), zap.Error(err))
		return
	}

	if result != nil {
		p.results.Put(*result, time.Now())
	}
}

func (p *Pool) tickLoop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (p *Pool) adjust(ctx context.Context) {
	current := p.activeWorkers()

	decision := p.policy.Evaluate(Status{
		Enabled:    p.enabled.Load(),
		Healthy:    p.monitor.IsHealthy(),
		Rate:       p.monitor.CurrentRate(),
		QueueDepth: p.queue.Len(),
		Capacity:   p.queue.Cap(),
	}, current)

	if decision.Action == ActionNone {
		return
	}

	p.log.Debug("scaling pool",
		zap.Stringer("action", decision.Action),
		zap.Int("from", current),
		zap.Int("to", decision.Target),
		zap.String("reason", decision.Reason),
	)

	p.scaleTo(ctx, decision.Target)
}

func (p *Pool) sweep(context.Context) {
	evicted := p.results.Sweep(time.Now(), p.config.ResultTTL, p.config.ResultHighWater)
	if evicted > 0 {
		p.log.Debug("evicted stale results", zap.Int("count", evicted))
	}
}

func (p *Pool) logStats(context.Context) {
	stats := p.Stats()

	p.log.Info("pool stats",
		zap.Int("active_workers", stats.ActiveWorkers),
		zap.Int("queue_depth", stats.QueueDepth),
		zap.Int("pending_results", stats.PendingResults),
		zap.Float64("fps", stats.FPS),
		zap.Bool("multi_process", stats.MultiProcessEnabled),
	)
}

// MARK: - workers

func WorkerID(i int) string {
	return fmt.Sprintf("render-%d", i)
}

func (p *Pool) activeWorkers() int {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()

	return p.active
}

// scaleTo starts or stops workers one at a time, highest index first on
// the way down. A worker that fails to start stops the scale-up.
func (p *Pool) scaleTo(ctx context.Context, target int) {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()

	for p.active < target {
		id := WorkerID(p.active)

		if p.workers != nil {
			if err := p.workers.StartWorker(ctx, id); err != nil {
				p.log.Warn("error starting render worker", zap.String("worker", id), zap.Error(err))
				return
			}
		}

		p.active++
		p.log.Info("started render worker", zap.String("worker", id), zap.Int("active", p.active))
	}

	for p.active > target {
		id := WorkerID(p.active - 1)

		if p.workers != nil {
			if err := p.workers.StopWorker(id); err != nil {
				p.log.Warn("error stopping render worker", zap.String("worker", id), zap.Error(err))
			}
		}

		p.active--
		p.log.Info("stopped render worker", zap.String("worker", id), zap.Int("active", p.active))
	}
}
