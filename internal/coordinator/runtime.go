package coordinator

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/execution/perf"
	"github.com/mindplus/offloader/internal/execution/pool"
	"github.com/mindplus/offloader/internal/execution/supervisor"
	"github.com/mindplus/offloader/internal/transport/broker"
	"github.com/mindplus/offloader/internal/transport/channel"
	"github.com/mindplus/offloader/models"
)

// redialInterval keeps a stream whose worker is unreachable from being
// redialed on every send.
const redialInterval = 5 * time.Second

type RuntimeParams struct {
	Config Config

	// Pool configures the render pool.
	Pool pool.Config

	Supervisor Supervisor
	Ports      PortCleaner

	// Launcher defaults to ExecutableLauncher.
	Launcher Launcher

	Channel channel.Config
	Broker  broker.Config

	// Host may also be attached later with AttachHost.
	Host Host

	Log *zap.Logger
}

// RuntimeStats is a snapshot of the runtime coordinator.
type RuntimeStats struct {
	Pool            pool.PoolState `json:"pool"`
	ScheduledChunks int            `json:"scheduledChunks"`
	RenderPeers     int            `json:"renderPeers"`
	PreloadHealthy  bool           `json:"preloadHealthy"`
	PreloadPending  int            `json:"preloadPending"`
}

type stream struct {
	ch       *channel.Channel
	failedAt time.Time
}

// Runtime feeds the streaming workers (AI, preloader, world generator,
// renderer) and owns the render pool, its broker and the render
// scheduler.
type Runtime struct {
	config Config
	sv     Supervisor
	ports  PortCleaner
	launch Launcher

	chConfig channel.Config

	pool      *pool.Pool
	broker    *broker.Broker
	scheduler *Scheduler
	preloader *Scheduler
	preload   *perf.Monitor

	hostMu sync.RWMutex
	host   Host

	streamsMu     sync.Mutex
	streams       map[models.WorkerKind]*stream
	streamsClosed bool

	mu          sync.Mutex
	started     []string
	initialized bool
	closed      bool

	log *zap.Logger
}

func NewRuntime(params RuntimeParams) (*Runtime, error) {
	log := params.Log.Named("runtime")

	launch := params.Launcher
	if launch == nil {
		launch = ExecutableLauncher(params.Config.Executable, params.Config.Host)
	}

	preload, err := perf.New(perf.Params{
		Config: params.Config.Runtime.PreloaderPerf,
		Log:    log.Named("preloader"),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating preloader monitor: %w", err)
	}

	r := &Runtime{
		config:   params.Config,
		sv:       params.Supervisor,
		ports:    params.Ports,
		launch:   launch,
		chConfig: params.Channel,
		preload:  preload,
		host:     params.Host,
		streams:  make(map[models.WorkerKind]*stream),
		log:      log,
	}

	r.broker = broker.New(broker.Params{
		Config:  params.Broker,
		Handler: r.handleBrokerMessage,
		Log:     log,
	})

	r.pool, err = pool.New(pool.Params{
		Config:    params.Pool,
		Workers:   renderPeers{r},
		Processor: brokerProcessor{r},
		Log:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating render pool: %w", err)
	}

	r.scheduler = NewScheduler(SchedulerParams{
		Config: params.Config.Runtime.Scheduler,
		Host:   r.Host,
		Radius: r.renderRadius,
		Budget: r.renderBudget,
		Submit: r.scheduleRender,
		Log:    log,
	})

	preloadConfig := params.Config.Runtime.Preload
	r.preloader = NewScheduler(SchedulerParams{
		Config:    preloadConfig.Scheduler,
		Host:      r.Host,
		Radius:    func(Host) int { return preloadConfig.Radius },
		LookAhead: func(Host) int { return preloadConfig.LookAhead },
		Ready:     r.preload.IsHealthy,
		Submit:    r.schedulePreload,
		Log:       log.Named("preloader"),
	})

	return r, nil
}

// Initialize frees the worker ports, starts the streaming workers, the
// broker, the pool and the scheduler, then waits for the workers to come
// up. Streams are opened on first use.
func (r *Runtime) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.initialized || r.closed {
		r.mu.Unlock()
		return nil
	}
	r.initialized = true
	r.mu.Unlock()

	workers := r.workers()

	ports := append([]workerStart(nil), workers...)
	ports = append(ports, workerStart{port: r.config.Runtime.BrokerPort})
	reclaimPorts(ctx, r.ports, ports, r.log)

	r.log.Info("starting runtime workers")

	started := startWorkers(ctx, r.sv, r.launch, workers, r.log)

	r.mu.Lock()
	r.started = started
	r.mu.Unlock()

	if err := r.broker.Start(ctx, r.config.Runtime.BrokerPort); err != nil {
		r.log.Warn("render broker unavailable, pool renders locally", zap.Error(err))
	}

	if err := r.pool.Start(ctx); err != nil {
		return fmt.Errorf("error starting render pool: %w", err)
	}

	r.scheduler.Start(ctx)

	if r.config.Runtime.Preloader.Enabled {
		r.preloader.Start(ctx)
	}

	if err := sleep(ctx, r.config.StartupDelay); err != nil {
		return err
	}

	r.log.Info("runtime workers started, streams connect on first use",
		zap.Strings("workers", started))

	return nil
}

// AttachHost sets the host the scheduler follows. Nil detaches.
func (r *Runtime) AttachHost(host Host) {
	r.hostMu.Lock()
	defer r.hostMu.Unlock()

	r.host = host
}

func (r *Runtime) Host() Host {
	r.hostMu.RLock()
	defer r.hostMu.RUnlock()

	return r.host
}

func (r *Runtime) Pool() *pool.Pool {
	return r.pool
}

func (r *Runtime) Broker() *broker.Broker {
	return r.broker
}

// RecordFrame feeds a host frame timestamp to the pool and the preloader
// monitors.
func (r *Runtime) RecordFrame(ts time.Time) {
	r.pool.RecordFrame(ts)
	r.preload.Record(ts)
}

// SendAITask pushes an AI task without waiting. It reports whether the
// task was handed to the worker.
func (r *Runtime) SendAITask(ctx context.Context, task models.AITask) bool {
	return r.push(ctx, models.AIProcessor, task.Encode())
}

// SendPreloadTask pushes a preload request for a chunk. Requests are
// dropped while the host frame rate is degraded.
func (r *Runtime) SendPreloadTask(ctx context.Context, x, z int32) bool {
	if !r.preload.IsHealthy() {
		r.log.Debug("host degraded, skipping preload", zap.String("chunk", models.Key(x, z)))
		return false
	}

	task := models.NewTask(x, z, float64(r.config.Generation.Seed))

	return r.push(ctx, models.ChunkPreloader, task.Encode())
}

// SendWorldGenTask pushes a world generation request for a chunk.
func (r *Runtime) SendWorldGenTask(ctx context.Context, x, z int32) bool {
	task := models.NewTask(x, z, float64(r.config.Generation.Seed))

	return r.push(ctx, models.WorldGenerator, task.Encode())
}

// SendRenderTask pushes a render task to the streaming renderer.
func (r *Runtime) SendRenderTask(ctx context.Context, task models.RenderTask) bool {
	return r.push(ctx, r.rendererKind(), task.Encode())
}

// SendSuperRender applies a super-render command locally and forwards it
// to the streaming renderer.
func (r *Runtime) SendSuperRender(ctx context.Context, cmd models.SuperRenderCommand) bool {
	if c, ok := cmd.(models.SimulationDistance); ok {
		applied := r.pool.SetSimulationDistance(c.Chunks)
		r.log.Info("simulation distance changed", zap.Int("chunks", applied))
	}

	return r.push(ctx, r.rendererKind(), models.EncodeSuperRender(cmd))
}

func (r *Runtime) Stats() RuntimeStats {
	return RuntimeStats{
		Pool:            r.pool.Stats(),
		ScheduledChunks: r.scheduler.Pending(),
		RenderPeers:     r.broker.Peers(),
		PreloadHealthy:  r.preload.IsHealthy(),
		PreloadPending:  r.preloader.Pending(),
	}
}

// Shutdown stops the schedulers, the pool and its render peers, the
// broker, the streams and finally the workers. Every step runs even if an
// earlier one failed.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	started := r.started
	r.started = nil
	r.mu.Unlock()

	var err error

	r.scheduler.Stop()
	r.preloader.Stop()

	err = multierr.Append(err, r.pool.Stop(ctx))

	if r.broker.Addr() != nil {
		err = multierr.Append(err, r.broker.Shutdown(ctx))
	}

	r.streamsMu.Lock()
	r.streamsClosed = true
	for kind, s := range r.streams {
		if s.ch != nil {
			err = multierr.Append(err, s.ch.Close())
		}
		delete(r.streams, kind)
	}
	r.streamsMu.Unlock()

	err = multierr.Append(err, stopWorkers(r.sv, started, r.log))

	r.log.Info("runtime coordinator shut down")

	return err
}

// MARK: - workers

func (r *Runtime) rendererKind() models.WorkerKind {
	if r.config.Runtime.Renderer.Multi {
		return models.MultiRenderer
	}

	return models.RenderWorker
}

func (r *Runtime) workers() []workerStart {
	rt := r.config.Runtime

	var workers []workerStart

	if rt.AI.Enabled {
		workers = append(workers, workerStart{id: models.AIProcessor.String(), kind: models.AIProcessor, port: rt.AI.Port})
	}

	if rt.Preloader.Enabled {
		workers = append(workers, workerStart{id: models.ChunkPreloader.String(), kind: models.ChunkPreloader, port: rt.Preloader.Port})
	}

	if rt.WorldGen.Enabled {
		workers = append(workers, workerStart{id: models.WorldGenerator.String(), kind: models.WorldGenerator, port: rt.WorldGen.Port})
	}

	renderer := workerStart{
		id:   r.rendererKind().String(),
		kind: r.rendererKind(),
		port: rt.Renderer.Port,
	}

	if rt.Renderer.Multi {
		renderer.args = []string{
			rt.Renderer.Type,
			strconv.Itoa(rt.Renderer.Width),
			strconv.Itoa(rt.Renderer.Height),
		}
	}

	return append(workers, renderer)
}

// streamPort returns the port of a streaming worker, or false when the
// worker is disabled.
func (r *Runtime) streamPort(kind models.WorkerKind) (int, bool) {
	rt := r.config.Runtime

	switch kind {
	case models.AIProcessor:
		return rt.AI.Port, rt.AI.Enabled
	case models.ChunkPreloader:
		return rt.Preloader.Port, rt.Preloader.Enabled
	case models.WorldGenerator:
		return rt.WorldGen.Port, rt.WorldGen.Enabled
	case models.MultiRenderer, models.RenderWorker:
		return rt.Renderer.Port, true
	default:
		return 0, false
	}
}

// MARK: - streams

// push sends data to a streaming worker without waiting. Any failure is a
// miss.
func (r *Runtime) push(ctx context.Context, kind models.WorkerKind, data []byte) bool {
	ch, err := r.stream(kind)
	if err != nil {
		r.log.Debug("stream unavailable", zap.Stringer("worker", kind), zap.Error(err))
		return false
	}

	if err := ch.Send(ctx, data, channel.NonBlocking); err != nil {
		r.log.Debug("failed to send task", zap.Stringer("worker", kind), zap.Error(err))
		return false
	}

	return true
}

func (r *Runtime) stream(kind models.WorkerKind) (*channel.Channel, error) {
	port, enabled := r.streamPort(kind)
	if !enabled {
		return nil, fmt.Errorf("%w: %s", ErrWorkerDisabled, kind)
	}

	r.streamsMu.Lock()
	defer r.streamsMu.Unlock()

	if r.streamsClosed {
		return nil, ErrNotInitialized
	}

	s, ok := r.streams[kind]
	if ok && s.ch != nil {
		return s.ch, nil
	}

	if ok && time.Since(s.failedAt) < redialInterval {
		return nil, channel.ErrNotConnected
	}

	address := channel.Endpoint(r.config.Host, port)

	ch := channel.New(channel.Params{
		Spec:   channel.Spec{Pattern: channel.StreamPush, Address: address},
		Config: r.chConfig,
		Log:    r.log,
	})

	if err := ch.Connect(); err != nil {
		ch.Close()
		r.streams[kind] = &stream{failedAt: time.Now()}
		return nil, err
	}

	r.streams[kind] = &stream{ch: ch}

	r.log.Info("stream connected", zap.Stringer("worker", kind), zap.String("address", address))

	return ch, nil
}

// MARK: - render pool

func (r *Runtime) usePool() bool {
	return r.pool.Enabled()
}

func (r *Runtime) renderRadius(host Host) int {
	if r.usePool() {
		return r.pool.SimulationDistance()
	}

	return min(host.RenderDistance()+renderRadiusPadding, MaxRenderRadius)
}

// renderBudget keeps a pass from overrunning the pool queue, which would
// evict the nearest chunks of the same pass.
func (r *Runtime) renderBudget() int {
	if r.usePool() {
		return r.pool.FreeSlots()
	}

	return -1
}

func (r *Runtime) scheduleRender(task models.RenderTask) bool {
	if r.usePool() {
		r.pool.Submit(task.Task())
		return true
	}

	return r.push(context.Background(), r.rendererKind(), task.Encode())
}

func (r *Runtime) schedulePreload(task models.RenderTask) bool {
	return r.SendPreloadTask(context.Background(), task.ChunkX, task.ChunkZ)
}

func (r *Runtime) handleBrokerMessage(peer string, msg broker.Message) {
	switch m := msg.(type) {
	case broker.ResultMessage:
		result, err := models.DecodeRenderResult(m.Data)
		if err != nil {
			r.log.Debug("dropping malformed render result", zap.String("peer", peer), zap.Error(err))
			return
		}
		r.pool.Deliver(result)
	case broker.ShutdownMessage:
		r.log.Warn("render peer requested broker shutdown", zap.String("peer", peer))
	default:
		r.log.Debug("ignoring message from peer", zap.String("peer", peer), zap.Stringer("kind", msg.Kind()))
	}
}

// renderPeers runs the pool's workers as broker peers under the
// supervisor.
type renderPeers struct {
	r *Runtime
}

func (p renderPeers) StartWorker(ctx context.Context, id string) error {
	return p.r.sv.Start(ctx, supervisor.WorkerSpec{
		ID:      id,
		Command: p.r.launch(models.RenderPeer, p.r.config.Runtime.BrokerPort),
	})
}

func (p renderPeers) StopWorker(id string) error {
	return p.r.sv.Stop(id)
}

// brokerProcessor broadcasts tasks to the render peers; their results come
// back through the broker handler. Without peers it renders locally.
type brokerProcessor struct {
	r *Runtime
}

func (p brokerProcessor) Process(ctx context.Context, task models.RenderTask) (*models.RenderResult, error) {
	b := p.r.broker

	if !b.Running() || b.Peers() == 0 {
		return pool.LocalProcessor{}.Process(ctx, task)
	}

	return nil, b.SendMessage(broker.TaskMessage{Data: task.Encode()})
}
