package workers

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/mindplus/offloader/models"
)

var biomes = []string{"plains", "forest", "desert", "taiga", "savanna", "swamp", "ocean", "mountains"}

var structures = []string{"none", "none", "none", "village", "ruins", "none", "outpost", "none"}

// Generator answers synchronous chunk requests for one generator kind.
// The results are placeholders derived from the chunk coordinate and the
// seed, stable across calls.
type Generator struct {
	kind models.WorkerKind
}

func NewGenerator(kind models.WorkerKind) (*Generator, error) {
	if !kind.IsGenerator() {
		return nil, fmt.Errorf("%s is not a generator", kind)
	}

	return &Generator{kind: kind}, nil
}

func (g *Generator) Generate(task models.ChunkTask) models.ChunkResult {
	h := chunkHash(task)

	var message string

	switch g.kind {
	case models.BiomeGenerator:
		message = "biome=" + biomes[h%uint64(len(biomes))]
	case models.TerrainGenerator:
		message = fmt.Sprintf("height=%d", 48+h%64)
	case models.StructureGenerator:
		message = "structure=" + structures[(h>>8)%uint64(len(structures))]
	case models.EntitySpawner:
		message = fmt.Sprintf("entities=%d", (h>>16)%6)
	}

	return models.ChunkResult{Success: true, Message: message}
}

func chunkHash(task models.ChunkTask) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint32(buf[0:], uint32(task.ChunkX))
	binary.BigEndian.PutUint32(buf[4:], uint32(task.ChunkZ))
	binary.BigEndian.PutUint64(buf[8:], uint64(task.WorldSeed))

	h := fnv.New64a()
	h.Write(buf[:])
	h.Write([]byte(task.Dimension))

	return h.Sum64()
}
