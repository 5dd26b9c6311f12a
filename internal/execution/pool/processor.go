package pool

import (
	"bytes"
	"context"
	"time"

	"github.com/mindplus/offloader/models"
)

// Processor turns a dequeued task into a result. A processor that hands
// the task to an out-of-process renderer returns nil and later delivers
// the result through Pool.Deliver.
type Processor interface {
	Process(ctx context.Context, task models.RenderTask) (*models.RenderResult, error)
}

type ProcessorFunc func(ctx context.Context, task models.RenderTask) (*models.RenderResult, error)

func (f ProcessorFunc) Process(ctx context.Context, task models.RenderTask) (*models.RenderResult, error) {
	return f(ctx, task)
}

const (
	placeholderVertexBytes = 1024
	placeholderLightBytes  = 256
	placeholderTriangles   = 256
)

// LocalProcessor renders in-process with a placeholder mesh.
type LocalProcessor struct{}

func (LocalProcessor) Process(_ context.Context, task models.RenderTask) (*models.RenderResult, error) {
	started := time.Now()

	result := PlaceholderResult(task)
	result.RenderTime = time.Since(started)

	return &result, nil
}

// PlaceholderResult builds the stand-in mesh for a chunk: vertex bytes
// filled with the low byte of x, light bytes with the low byte of z.
func PlaceholderResult(task models.RenderTask) models.RenderResult {
	return models.RenderResult{
		ChunkX:        task.ChunkX,
		ChunkZ:        task.ChunkZ,
		VertexData:    bytes.Repeat([]byte{byte(task.ChunkX)}, placeholderVertexBytes),
		LightData:     bytes.Repeat([]byte{byte(task.ChunkZ)}, placeholderLightBytes),
		TriangleCount: placeholderTriangles,
	}
}
