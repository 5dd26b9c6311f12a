package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// RenderTask asks a renderer to build the mesh of one chunk as seen from a
// camera height. It shares the streaming task wire form.
type RenderTask struct {
	ChunkX  int32   `json:"x"`
	ChunkZ  int32   `json:"z"`
	CameraY float64 `json:"cameraY"`
}

func (t RenderTask) Task() Task {
	return Task{CoordX: t.ChunkX, CoordZ: t.ChunkZ, Extra: t.CameraY}
}

func (t RenderTask) Encode() []byte {
	return t.Task().Encode()
}

func DecodeRenderTask(data []byte) (RenderTask, error) {
	task, err := DecodeTask(data)
	if err != nil {
		return RenderTask{}, err
	}

	return RenderTask{ChunkX: task.CoordX, ChunkZ: task.CoordZ, CameraY: task.Extra}, nil
}

// RenderResult is the mesh produced for a chunk. On the wire, big endian:
//
//	x(4) z(4) vertexLen(4) vertex lightLen(4) light renderTimeNs(8) triangles(4)
type RenderResult struct {
	ChunkX        int32         `json:"x"`
	ChunkZ        int32         `json:"z"`
	VertexData    []byte        `json:"vertexData"`
	LightData     []byte        `json:"lightData"`
	RenderTime    time.Duration `json:"renderTime"`
	TriangleCount int32         `json:"triangleCount"`
}

func (r RenderResult) Key() string {
	return Key(r.ChunkX, r.ChunkZ)
}

func (r RenderResult) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 28+len(r.VertexData)+len(r.LightData)))

	// writes into a bytes.Buffer cannot fail
	_ = binary.Write(buf, binary.BigEndian, r.ChunkX)
	_ = binary.Write(buf, binary.BigEndian, r.ChunkZ)
	_ = binary.Write(buf, binary.BigEndian, int32(len(r.VertexData)))
	buf.Write(r.VertexData)
	_ = binary.Write(buf, binary.BigEndian, int32(len(r.LightData)))
	buf.Write(r.LightData)
	_ = binary.Write(buf, binary.BigEndian, r.RenderTime.Nanoseconds())
	_ = binary.Write(buf, binary.BigEndian, r.TriangleCount)

	return buf.Bytes()
}

func DecodeRenderResult(data []byte) (RenderResult, error) {
	var (
		r          RenderResult
		renderTime int64
	)

	rd := bytes.NewReader(data)

	if err := binary.Read(rd, binary.BigEndian, &r.ChunkX); err != nil {
		return RenderResult{}, malformedResult("chunk x", err)
	}

	if err := binary.Read(rd, binary.BigEndian, &r.ChunkZ); err != nil {
		return RenderResult{}, malformedResult("chunk z", err)
	}

	vertex, err := readBlock(rd)
	if err != nil {
		return RenderResult{}, malformedResult("vertex data", err)
	}

	light, err := readBlock(rd)
	if err != nil {
		return RenderResult{}, malformedResult("light data", err)
	}

	if err := binary.Read(rd, binary.BigEndian, &renderTime); err != nil {
		return RenderResult{}, malformedResult("render time", err)
	}

	if err := binary.Read(rd, binary.BigEndian, &r.TriangleCount); err != nil {
		return RenderResult{}, malformedResult("triangle count", err)
	}

	r.VertexData = vertex
	r.LightData = light
	r.RenderTime = time.Duration(renderTime)

	return r, nil
}

func readBlock(rd *bytes.Reader) ([]byte, error) {
	var n int32
	if err := binary.Read(rd, binary.BigEndian, &n); err != nil {
		return nil, err
	}

	if n <= 0 {
		return nil, nil
	}

	if int(n) > rd.Len() {
		return nil, io.ErrUnexpectedEOF
	}

	block := make([]byte, n)
	if _, err := io.ReadFull(rd, block); err != nil {
		return nil, err
	}

	return block, nil
}

func malformedResult(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedResult, field, err)
}
