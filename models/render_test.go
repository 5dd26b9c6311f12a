package models_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindplus/offloader/models"
)

func TestRenderResult_RoundTrip(t *testing.T) {
	result := models.RenderResult{
		ChunkX:        -3,
		ChunkZ:        17,
		VertexData:    bytes.Repeat([]byte{0xFD}, 1024),
		LightData:     bytes.Repeat([]byte{17}, 256),
		RenderTime:    1500 * time.Microsecond,
		TriangleCount: 256,
	}

	data := result.Encode()
	assert.Len(t, data, 28+1024+256)

	decoded, err := models.DecodeRenderResult(data)
	require.NoError(t, err)
	assert.Equal(t, result, decoded)
	assert.Equal(t, "-3,17", decoded.Key())
}

func TestRenderResult_Layout(t *testing.T) {
	result := models.RenderResult{
		ChunkX:        1,
		ChunkZ:        2,
		VertexData:    []byte{0xAA},
		RenderTime:    3,
		TriangleCount: 4,
	}

	expected := []byte{
		0, 0, 0, 1,
		0, 0, 0, 2,
		0, 0, 0, 1, 0xAA,
		0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 3,
		0, 0, 0, 4,
	}

	assert.Equal(t, expected, result.Encode())
}

func TestDecodeRenderResult_Truncated(t *testing.T) {
	data := models.RenderResult{ChunkX: 1, ChunkZ: 2, VertexData: []byte{1, 2, 3}}.Encode()

	for _, n := range []int{0, 4, 10, 14, len(data) - 1} {
		_, err := models.DecodeRenderResult(data[:n])
		assert.ErrorIs(t, err, models.ErrMalformedResult)
	}
}

func TestRenderTask_RoundTrip(t *testing.T) {
	task := models.RenderTask{ChunkX: 4, ChunkZ: -4, CameraY: 72.5}

	assert.Equal(t, "4,-4,72.5", string(task.Encode()))

	decoded, err := models.DecodeRenderTask(task.Encode())
	require.NoError(t, err)
	assert.Equal(t, task, decoded)
}
