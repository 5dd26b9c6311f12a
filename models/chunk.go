package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ChunkTask is the synchronous generation request sent to the generator
// workers: "<x>,<z>,<seed>,<dimension>".
type ChunkTask struct {
	ChunkX    int32  `json:"x"`
	ChunkZ    int32  `json:"z"`
	WorldSeed int64  `json:"seed"`
	Dimension string `json:"dimension"`
}

func (t ChunkTask) Key() string {
	return Key(t.ChunkX, t.ChunkZ)
}

func (t ChunkTask) Encode() []byte {
	return []byte(Key(t.ChunkX, t.ChunkZ) + "," +
		strconv.FormatInt(t.WorldSeed, 10) + "," + t.Dimension)
}

func DecodeChunkTask(data []byte) (ChunkTask, error) {
	// the dimension is last, so it may itself contain separators
	parts := strings.SplitN(string(data), ",", 4)
	if len(parts) != 4 {
		return ChunkTask{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedTask, len(parts))
	}

	x, z, err := parseCoord(parts[0], parts[1])
	if err != nil {
		return ChunkTask{}, err
	}

	seed, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return ChunkTask{}, fmt.Errorf("%w: seed: %v", ErrMalformedTask, err)
	}

	return ChunkTask{
		ChunkX:    x,
		ChunkZ:    z,
		WorldSeed: seed,
		Dimension: parts[3],
	}, nil
}

// ChunkResult is the synchronous reply: "<success>:<message>".
type ChunkResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (r ChunkResult) Encode() []byte {
	return []byte(strconv.FormatBool(r.Success) + ":" + r.Message)
}

func DecodeChunkResult(data []byte) (ChunkResult, error) {
	status, message, ok := strings.Cut(string(data), ":")
	if !ok {
		return ChunkResult{}, fmt.Errorf("%w: missing separator", ErrMalformedResult)
	}

	success, err := strconv.ParseBool(status)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("%w: status: %v", ErrMalformedResult, err)
	}

	return ChunkResult{Success: success, Message: message}, nil
}
