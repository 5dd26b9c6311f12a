// Package workers holds the process side of the built-in workers: the
// loops that bind a worker port and answer or consume what the
// coordinators send.
package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/transport/channel"
	"github.com/mindplus/offloader/models"
)

type Params struct {
	Kind models.WorkerKind

	// Host and Port locate the worker socket, or the broker for render
	// peers.
	Host string
	Port int

	// Args are kind specific positional arguments.
	Args []string

	Channel channel.Config

	// StatsInterval is the period of the stats log line. Zero disables it.
	StatsInterval time.Duration

	Log *zap.Logger
}

// Run serves the worker until ctx is done or the transport fails.
func Run(ctx context.Context, params Params) error {
	log := params.Log.Named(params.Kind.String())

	switch params.Kind {
	case models.StructureGenerator, models.TerrainGenerator, models.BiomeGenerator, models.EntitySpawner:
		gen, err := NewGenerator(params.Kind)
		if err != nil {
			return err
		}
		return serveReply(ctx, params, gen.Generate, log)

	case models.AIProcessor:
		return servePull(ctx, params, handleAI(log), log)

	case models.ChunkPreloader, models.WorldGenerator:
		return servePull(ctx, params, handleChunk(params.Kind, log), log)

	case models.MultiRenderer, models.RenderWorker:
		renderer := NewRenderer(RendererOptionsFromArgs(params.Args), log)
		if params.StatsInterval > 0 {
			go renderer.logStats(ctx, params.StatsInterval)
		}
		return servePull(ctx, params, renderer.Handle, log)

	case models.RenderPeer:
		return RunPeer(ctx, PeerParams{
			Address: fmt.Sprintf("%s:%d", params.Host, params.Port),
			Log:     log,
		})

	default:
		return fmt.Errorf("unsupported worker kind %q", params.Kind)
	}
}

// MARK: - loops

func bind(params Params, pattern channel.Pattern, log *zap.Logger) (*channel.Channel, error) {
	ch := channel.New(channel.Params{
		Spec: channel.Spec{
			Pattern: pattern,
			Address: channel.Endpoint(params.Host, params.Port),
		},
		Config: params.Channel,
		Log:    log,
	})

	if err := ch.Bind(); err != nil {
		ch.Close()
		return nil, fmt.Errorf("error binding port %d: %w", params.Port, err)
	}

	log.Info("worker listening", zap.Int("port", params.Port))

	return ch, nil
}

// serveReply answers every chunk request with a chunk result. A request
// that does not parse gets a failed result, keeping the request/reply
// sequence in step.
func serveReply(
	ctx context.Context,
	params Params,
	generate func(models.ChunkTask) models.ChunkResult,
	log *zap.Logger,
) error {
	ch, err := bind(params, channel.SyncReply, log)
	if err != nil {
		return err
	}
	defer ch.Close()

	for {
		data, err := ch.Receive(ctx, channel.Blocking)
		if err != nil {
			return stopped(ctx, err)
		}

		var result models.ChunkResult

		task, err := models.DecodeChunkTask(data)
		if err != nil {
			log.Debug("malformed request", zap.ByteString("data", data), zap.Error(err))
			result = models.ChunkResult{Success: false, Message: err.Error()}
		} else {
			log.Debug("processing chunk", zap.String("chunk", task.Key()))
			result = generate(task)
		}

		if err := ch.Send(ctx, result.Encode(), channel.Blocking); err != nil {
			return stopped(ctx, err)
		}
	}
}

// servePull consumes a stream. Handler errors are logged and the message
// dropped.
func servePull(ctx context.Context, params Params, handle func([]byte) error, log *zap.Logger) error {
	ch, err := bind(params, channel.StreamPull, log)
	if err != nil {
		return err
	}
	defer ch.Close()

	for {
		data, err := ch.Receive(ctx, channel.Blocking)
		if err != nil {
			return stopped(ctx, err)
		}

		if err := handle(data); err != nil {
			log.Debug("dropping message", zap.ByteString("data", data), zap.Error(err))
		}
	}
}

// stopped maps the error that ended a loop: cancellation is a clean stop.
func stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}

	return err
}
