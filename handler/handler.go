package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/mindplus/offloader/internal/coordinator"
	"github.com/mindplus/offloader/internal/execution/pool"
	"github.com/mindplus/offloader/internal/execution/supervisor"
	"github.com/mindplus/offloader/models"
)

// Generator is the synchronous chunk generation side.
type Generator interface {
	GenerateChunk(ctx context.Context, x, z int32) (*coordinator.GenerationReport, error)
	SendTaskToWorker(ctx context.Context, kind models.WorkerKind, payload []byte) ([]byte, error)
}

// Streams is the streaming side: fire-and-forget worker pushes and the
// frame signal.
type Streams interface {
	SendAITask(ctx context.Context, task models.AITask) bool
	SendPreloadTask(ctx context.Context, x, z int32) bool
	SendWorldGenTask(ctx context.Context, x, z int32) bool
	SendRenderTask(ctx context.Context, task models.RenderTask) bool
	SendSuperRender(ctx context.Context, cmd models.SuperRenderCommand) bool
	RecordFrame(ts time.Time)
	Stats() coordinator.RuntimeStats
}

// Workers lists the supervised worker processes.
type Workers interface {
	Workers() []supervisor.WorkerInfo
}

// MARK: - pool

// PoolService is the "pool" RPC namespace.
type PoolService struct {
	pool    *pool.Pool
	streams Streams
}

// Submit queues a render task and returns its result key.
func (s *PoolService) Submit(x, z int32, cameraY float64) string {
	task := models.NewTask(x, z, cameraY)
	s.pool.Submit(task)

	return task.Key()
}

// Result claims the result for key. It returns null when there is none.
func (s *PoolService) Result(key string) *models.RenderResult {
	result, ok := s.pool.GetResult(key)
	if !ok {
		return nil
	}

	return &result
}

func (s *PoolService) Stats() pool.PoolState {
	return s.pool.Stats()
}

// RecordFrame marks a host frame now.
func (s *PoolService) RecordFrame() {
	s.streams.RecordFrame(time.Now())
}

func (s *PoolService) SetEnabled(enabled bool) bool {
	s.pool.SetEnabled(enabled)

	return s.pool.Enabled()
}

// MARK: - gen

// GenService is the "gen" RPC namespace.
type GenService struct {
	gen Generator
}

func (s *GenService) GenerateChunk(ctx context.Context, x, z int32) (*coordinator.GenerationReport, error) {
	return s.gen.GenerateChunk(ctx, x, z)
}

// SendTask sends a raw payload to one generator and returns its raw reply.
func (s *GenService) SendTask(ctx context.Context, kind string, payload string) (string, error) {
	k, err := models.ParseWorkerKind(kind)
	if err != nil {
		return "", err
	}

	reply, err := s.gen.SendTaskToWorker(ctx, k, []byte(payload))
	if err != nil {
		return "", err
	}

	return string(reply), nil
}

// MARK: - runtime

// RuntimeService is the "runtime" RPC namespace.
type RuntimeService struct {
	streams Streams
	host    *coordinator.HostState
}

func (s *RuntimeService) SendAITask(ctx context.Context, task models.AITask) bool {
	return s.streams.SendAITask(ctx, task)
}

func (s *RuntimeService) SendPreloadTask(ctx context.Context, x, z int32) bool {
	return s.streams.SendPreloadTask(ctx, x, z)
}

func (s *RuntimeService) SendWorldGenTask(ctx context.Context, x, z int32) bool {
	return s.streams.SendWorldGenTask(ctx, x, z)
}

func (s *RuntimeService) SendRenderTask(ctx context.Context, task models.RenderTask) bool {
	return s.streams.SendRenderTask(ctx, task)
}

// SuperRender forwards a renderer command, e.g. ("FOV_ZOOM", "1.5").
func (s *RuntimeService) SuperRender(ctx context.Context, kind string, value string) (bool, error) {
	cmd, err := models.ParseSuperRender([]byte(models.SuperRenderPrefix + kind + ":" + value))
	if err != nil {
		return false, fmt.Errorf("invalid super render command: %w", err)
	}

	return s.streams.SendSuperRender(ctx, cmd), nil
}

// UpdateCamera records the host camera in block coordinates. A render
// distance of zero keeps the previous one. The horizontal velocity, in
// blocks per tick, is optional and reads as standing still when omitted.
func (s *RuntimeService) UpdateCamera(x, y, z float64, renderDistance int, velocityX, velocityZ *float64) {
	var velocity coordinator.Velocity
	if velocityX != nil {
		velocity.X = *velocityX
	}
	if velocityZ != nil {
		velocity.Z = *velocityZ
	}

	s.host.Update(coordinator.Camera{X: x, Y: y, Z: z}, renderDistance)
	s.host.UpdateVelocity(velocity)
}

// ClearCamera stops render scheduling until the next camera update.
func (s *RuntimeService) ClearCamera() {
	s.host.Clear()
}

func (s *RuntimeService) Stats() coordinator.RuntimeStats {
	return s.streams.Stats()
}

// MARK: - supervisor

// SupervisorService is the "supervisor" RPC namespace.
type SupervisorService struct {
	workers Workers
}

func (s *SupervisorService) Workers() []supervisor.WorkerInfo {
	return s.workers.Workers()
}
