package models

import "fmt"

// WorkerKind names a built-in worker process. The kind doubles as the
// supervisor id of the single instance a coordinator starts.
type WorkerKind string

const (
	StructureGenerator WorkerKind = "structure-generator"
	TerrainGenerator   WorkerKind = "terrain-generator"
	BiomeGenerator     WorkerKind = "biome-generator"
	EntitySpawner      WorkerKind = "entity-spawner"

	AIProcessor    WorkerKind = "ai-processor"
	ChunkPreloader WorkerKind = "chunk-preloader"
	WorldGenerator WorkerKind = "world-generator"
	MultiRenderer  WorkerKind = "multi-renderer"
	RenderWorker   WorkerKind = "render-worker"

	// RenderPeer is a pool render worker attached to the broker.
	RenderPeer WorkerKind = "render-peer"
)

var workerKinds = []WorkerKind{
	StructureGenerator,
	TerrainGenerator,
	BiomeGenerator,
	EntitySpawner,
	AIProcessor,
	ChunkPreloader,
	WorldGenerator,
	MultiRenderer,
	RenderWorker,
	RenderPeer,
}

func (k WorkerKind) String() string {
	return string(k)
}

// IsGenerator reports whether the kind answers synchronous chunk requests.
func (k WorkerKind) IsGenerator() bool {
	switch k {
	case StructureGenerator, TerrainGenerator, BiomeGenerator, EntitySpawner:
		return true
	default:
		return false
	}
}

// ParseWorkerKind validates a worker kind name.
func ParseWorkerKind(s string) (WorkerKind, error) {
	for _, k := range workerKinds {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("unknown worker kind %q", s)
}

// WorkerKinds lists every built-in kind.
func WorkerKinds() []WorkerKind {
	return append([]WorkerKind(nil), workerKinds...)
}
