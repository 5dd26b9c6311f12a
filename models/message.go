package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedTask   = errors.New("malformed task")
	ErrMalformedResult = errors.New("malformed result")
)

// Key is the identity of a task: its chunk coordinate in the "x,z" form
// used by the pending result map.
func Key(x, z int32) string {
	return strconv.FormatInt(int64(x), 10) + "," + strconv.FormatInt(int64(z), 10)
}

// Task is a unit of offloaded work addressed by a chunk coordinate. Extra
// carries the per-kind scalar, e.g. the camera height for render tasks.
type Task struct {
	CoordX      int32     `json:"x"`
	CoordZ      int32     `json:"z"`
	Extra       float64   `json:"extra"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func NewTask(x, z int32, extra float64) Task {
	return Task{
		CoordX:      x,
		CoordZ:      z,
		Extra:       extra,
		SubmittedAt: time.Now(),
	}
}

// Key returns the coordinate key of the task.
func (t Task) Key() string {
	return Key(t.CoordX, t.CoordZ)
}

// Encode returns the streaming wire form "<x>,<z>,<extra>". SubmittedAt is
// local bookkeeping and does not travel.
func (t Task) Encode() []byte {
	return []byte(t.String())
}

func (t Task) String() string {
	return Key(t.CoordX, t.CoordZ) + "," + formatFloat(t.Extra)
}

// DecodeTask parses the streaming wire form produced by Task.Encode.
func DecodeTask(data []byte) (Task, error) {
	parts := strings.Split(string(data), ",")
	if len(parts) != 3 {
		return Task{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedTask, len(parts))
	}

	x, z, err := parseCoord(parts[0], parts[1])
	if err != nil {
		return Task{}, err
	}

	extra, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return Task{}, fmt.Errorf("%w: extra: %v", ErrMalformedTask, err)
	}

	return Task{CoordX: x, CoordZ: z, Extra: extra}, nil
}

// MARK: - helpers

func parseCoord(xs, zs string) (int32, int32, error) {
	x, err := strconv.ParseInt(strings.TrimSpace(xs), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: x: %v", ErrMalformedTask, err)
	}

	z, err := strconv.ParseInt(strings.TrimSpace(zs), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: z: %v", ErrMalformedTask, err)
	}

	return int32(x), int32(z), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
