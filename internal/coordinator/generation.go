package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/puddle/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/transport/channel"
	"github.com/mindplus/offloader/models"
)

// generationOrder is the order in which GenerateChunk queries the
// generators.
var generationOrder = []models.WorkerKind{
	models.BiomeGenerator,
	models.TerrainGenerator,
	models.StructureGenerator,
	models.EntitySpawner,
}

type GenerationParams struct {
	Config Config

	Supervisor Supervisor
	Ports      PortCleaner

	// Launcher defaults to ExecutableLauncher.
	Launcher Launcher

	// Channel configures the request channels.
	Channel channel.Config

	Log *zap.Logger
}

// StageResult is the reply of one generator to a chunk request. Error is
// set when the generator could not be reached or answered garbage.
type StageResult struct {
	Worker models.WorkerKind   `json:"worker"`
	Result *models.ChunkResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// GenerationReport collects the replies of every enabled generator.
type GenerationReport struct {
	Chunk  models.ChunkTask `json:"chunk"`
	Stages []StageResult    `json:"stages"`
}

// Generation drives the synchronous chunk generators. Each generator is
// reached through a small pool of request channels, so concurrent
// requests never share a socket mid round-trip.
type Generation struct {
	config   Config
	sv       Supervisor
	ports    PortCleaner
	launch   Launcher
	chConfig channel.Config

	mu      sync.Mutex
	links   map[models.WorkerKind]*puddle.Pool[*channel.Channel]
	started []string
	closed  bool

	log *zap.Logger
}

func NewGeneration(params GenerationParams) *Generation {
	launch := params.Launcher
	if launch == nil {
		launch = ExecutableLauncher(params.Config.Executable, params.Config.Host)
	}

	return &Generation{
		config:   params.Config,
		sv:       params.Supervisor,
		ports:    params.Ports,
		launch:   launch,
		chConfig: params.Channel,
		links:    make(map[models.WorkerKind]*puddle.Pool[*channel.Channel]),
		log:      params.Log.Named("generation"),
	}
}

// Initialize frees the generator ports, starts the enabled generators and
// waits for them to come up. Channels are opened on first use.
func (g *Generation) Initialize(ctx context.Context) error {
	workers := g.workers()

	reclaimPorts(ctx, g.ports, workers, g.log)

	g.log.Info("starting generation workers")

	started := startWorkers(ctx, g.sv, g.launch, workers, g.log)

	g.mu.Lock()
	g.started = started
	g.mu.Unlock()

	if err := sleep(ctx, g.config.StartupDelay); err != nil {
		return err
	}

	g.log.Info("generation workers started, channels connect on first use",
		zap.Strings("workers", started))

	return nil
}

// GenerateChunk asks every enabled generator, biome first, about the chunk
// at x, z. A generator that fails is recorded in its stage and does not
// stop the others.
func (g *Generation) GenerateChunk(ctx context.Context, x, z int32) (*GenerationReport, error) {
	task := models.ChunkTask{
		ChunkX:    x,
		ChunkZ:    z,
		WorldSeed: g.config.Generation.Seed,
		Dimension: g.config.Generation.Dimension,
	}

	report := &GenerationReport{Chunk: task}
	payload := task.Encode()

	for _, kind := range generationOrder {
		if !g.workerConfig(kind).Enabled {
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}

		stage := StageResult{Worker: kind}

		reply, err := g.request(ctx, kind, payload)
		if err == nil {
			var result models.ChunkResult
			if result, err = models.DecodeChunkResult(reply); err == nil {
				stage.Result = &result
			}
		}

		if err != nil {
			g.log.Debug("generation stage failed",
				zap.Stringer("worker", kind),
				zap.String("chunk", task.Key()),
				zap.Error(err),
			)
			stage.Error = err.Error()
		}

		report.Stages = append(report.Stages, stage)
	}

	g.log.Debug("chunk generation completed", zap.String("chunk", task.Key()))

	return report, nil
}

// SendTaskToWorker performs a single round-trip with the named generator.
func (g *Generation) SendTaskToWorker(ctx context.Context, kind models.WorkerKind, payload []byte) ([]byte, error) {
	if !kind.IsGenerator() {
		g.log.Warn("unknown worker", zap.Stringer("worker", kind))
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorker, kind)
	}

	if !g.workerConfig(kind).Enabled {
		return nil, fmt.Errorf("%w: %s", ErrWorkerDisabled, kind)
	}

	reply, err := g.request(ctx, kind, payload)
	if err != nil {
		g.log.Warn("failed to send task to worker", zap.Stringer("worker", kind), zap.Error(err))
		return nil, err
	}

	return reply, nil
}

// Shutdown closes every request channel and stops the generators, in
// reverse order of Initialize.
func (g *Generation) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true

	links := g.links
	g.links = nil
	started := g.started
	g.started = nil
	g.mu.Unlock()

	var err error

	for kind, pool := range links {
		err = multierr.Append(err, closeLinks(ctx, pool))
		g.log.Debug("closed worker channels", zap.Stringer("worker", kind))
	}

	err = multierr.Append(err, stopWorkers(g.sv, started, g.log))

	g.log.Info("generation coordinator shut down")

	return err
}

// MARK: - internal

func (g *Generation) workerConfig(kind models.WorkerKind) WorkerConfig {
	gen := g.config.Generation

	switch kind {
	case models.StructureGenerator:
		return gen.Structure
	case models.TerrainGenerator:
		return gen.Terrain
	case models.BiomeGenerator:
		return gen.Biome
	case models.EntitySpawner:
		return gen.Entity
	default:
		return WorkerConfig{}
	}
}

func (g *Generation) workers() []workerStart {
	kinds := []models.WorkerKind{
		models.StructureGenerator,
		models.TerrainGenerator,
		models.BiomeGenerator,
		models.EntitySpawner,
	}

	var workers []workerStart
	for _, kind := range kinds {
		wc := g.workerConfig(kind)
		if !wc.Enabled {
			continue
		}

		workers = append(workers, workerStart{id: kind.String(), kind: kind, port: wc.Port})
	}

	return workers
}

// request checks out a channel to kind, runs one round-trip and returns
// the channel. A channel that failed mid round-trip is destroyed.
func (g *Generation) request(ctx context.Context, kind models.WorkerKind, payload []byte) ([]byte, error) {
	pool, err := g.linkPool(kind)
	if err != nil {
		return nil, err
	}

	if timeout := g.config.Generation.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("error acquiring channel to %s: %w", kind, err)
	}

	reply, err := res.Value().Request(ctx, payload)
	if err != nil || res.Value().Broken() {
		res.Destroy()
	} else {
		res.Release()
	}

	if err != nil {
		return nil, fmt.Errorf("error requesting %s: %w", kind, err)
	}

	return reply, nil
}

func (g *Generation) linkPool(kind models.WorkerKind) (*puddle.Pool[*channel.Channel], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrNotInitialized
	}

	if pool, ok := g.links[kind]; ok {
		return pool, nil
	}

	maxLinks := g.config.Generation.MaxLinks
	if maxLinks < 1 {
		maxLinks = 1
	}

	address := channel.Endpoint(g.config.Host, g.workerConfig(kind).Port)
	log := g.log.With(zap.Stringer("worker", kind))

	pool, err := puddle.NewPool(&puddle.Config[*channel.Channel]{
		Constructor: func(context.Context) (*channel.Channel, error) {
			ch := channel.New(channel.Params{
				Spec:   channel.Spec{Pattern: channel.SyncRequest, Address: address},
				Config: g.chConfig,
				Log:    g.log,
			})

			if err := ch.Connect(); err != nil {
				ch.Close()
				return nil, err
			}

			log.Info("connected to worker", zap.String("address", address))

			return ch, nil
		},
		Destructor: func(ch *channel.Channel) {
			if err := ch.Close(); err != nil {
				log.Debug("error closing channel", zap.Error(err))
			}
		},
		MaxSize: int32(maxLinks),
	})
	if err != nil {
		return nil, err
	}

	g.links[kind] = pool

	return pool, nil
}

// closeLinks closes the pool, waiting for checked out channels bounded by
// ctx.
func closeLinks(ctx context.Context, pool *puddle.Pool[*channel.Channel]) error {
	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
