package workers

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/execution/pool"
	"github.com/mindplus/offloader/models"
)

type RendererOptions struct {
	Type   string
	Width  int
	Height int
}

// RendererOptionsFromArgs reads "<type> <width> <height>", falling back to
// defaults for missing or invalid values.
func RendererOptionsFromArgs(args []string) RendererOptions {
	opts := RendererOptions{Type: "vulkan", Width: 1920, Height: 1080}

	if len(args) > 0 && args[0] != "" {
		opts.Type = strings.ToLower(args[0])
	}
	if len(args) > 1 {
		if w, err := strconv.Atoi(args[1]); err == nil && w > 0 {
			opts.Width = w
		}
	}
	if len(args) > 2 {
		if h, err := strconv.Atoi(args[2]); err == nil && h > 0 {
			opts.Height = h
		}
	}

	return opts
}

// RendererState is the view configuration a renderer applies from
// super-render commands.
type RendererState struct {
	RenderDistance     int     `json:"renderDistance"`
	SimulationDistance int     `json:"simulationDistance"`
	FovZoom            float64 `json:"fovZoom"`
	LookAhead          int     `json:"lookAhead"`
}

// Renderer consumes the render stream: chunk tasks are rendered with the
// placeholder mesh, super-render commands update its state.
type Renderer struct {
	opts RendererOptions

	mu       sync.Mutex
	state    RendererState
	rendered int
	lastTime time.Duration

	log *zap.Logger
}

func NewRenderer(opts RendererOptions, log *zap.Logger) *Renderer {
	log.Info("renderer initialized",
		zap.String("type", opts.Type),
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
	)

	return &Renderer{
		opts: opts,
		state: RendererState{
			RenderDistance:     12,
			SimulationDistance: 12,
			FovZoom:            1,
			LookAhead:          4,
		},
		log: log,
	}
}

func (r *Renderer) Handle(data []byte) error {
	if models.IsSuperRender(data) {
		cmd, err := models.ParseSuperRender(data)
		if err != nil {
			r.log.Warn("ignoring super render command", zap.ByteString("command", data), zap.Error(err))
			return nil
		}

		r.apply(cmd)
		return nil
	}

	task, err := models.DecodeRenderTask(data)
	if err != nil {
		return err
	}

	r.Render(task)

	return nil
}

// Render builds the placeholder mesh of a chunk.
func (r *Renderer) Render(task models.RenderTask) models.RenderResult {
	started := time.Now()

	result := pool.PlaceholderResult(task)
	result.RenderTime = time.Since(started)

	r.mu.Lock()
	r.rendered++
	r.lastTime = result.RenderTime
	r.mu.Unlock()

	return result
}

func (r *Renderer) State() RendererState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

func (r *Renderer) Rendered() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rendered
}

func (r *Renderer) apply(cmd models.SuperRenderCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch c := cmd.(type) {
	case models.RenderDistance:
		r.state.RenderDistance = c.Chunks
	case models.SimulationDistance:
		r.state.SimulationDistance = c.Chunks
	case models.FovZoom:
		r.state.FovZoom = c.Factor
	case models.LookAhead:
		r.state.LookAhead = c.Chunks
	}

	r.log.Info("applied super render command", zap.String("type", cmd.Type()), zap.String("value", cmd.Value()))
}

func (r *Renderer) logStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			rendered, last := r.rendered, r.lastTime
			r.mu.Unlock()

			r.log.Info("render stats",
				zap.String("type", r.opts.Type),
				zap.Int("chunks", rendered),
				zap.Duration("last_frame", last),
			)
		}
	}
}
