package coordinator

import (
	"math"
	"sync"
	"time"
)

const chunkSize = 16

// Camera is the host camera position in block coordinates.
type Camera struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Chunk returns the chunk column containing the camera.
func (c Camera) Chunk() (int32, int32) {
	return int32(math.Floor(c.X / chunkSize)), int32(math.Floor(c.Z / chunkSize))
}

// minMovingSpeed is the horizontal speed, in blocks per host tick, above
// which the camera counts as moving.
const minMovingSpeed = 0.1

// Velocity is the horizontal camera velocity in blocks per host tick.
type Velocity struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Direction returns the chunk step along each axis and whether the camera
// moves fast enough to have a heading.
func (v Velocity) Direction() (int32, int32, bool) {
	if math.Hypot(v.X, v.Z) <= minMovingSpeed {
		return 0, 0, false
	}

	return sign(v.X), sign(v.Z), true
}

func sign(f float64) int32 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// Host is the application whose main loop the coordinators offload. It
// supplies the camera for render and preload scheduling.
type Host interface {
	// Camera returns the current camera, or false when there is no world
	// loaded.
	Camera() (Camera, bool)

	// RenderDistance is the host's configured view distance in chunks.
	RenderDistance() int

	// Velocity is the current camera velocity, zero when standing still.
	Velocity() Velocity
}

// HostState is a Host fed by explicit updates, e.g. from the RPC surface.
type HostState struct {
	mu             sync.RWMutex
	camera         Camera
	hasCamera      bool
	velocity       Velocity
	renderDistance int
	updatedAt      time.Time
}

func NewHostState(renderDistance int) *HostState {
	return &HostState{renderDistance: renderDistance}
}

// Update stores a camera position. A non-positive render distance keeps the
// previous value.
func (h *HostState) Update(camera Camera, renderDistance int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.camera = camera
	h.hasCamera = true
	h.updatedAt = time.Now()

	if renderDistance > 0 {
		h.renderDistance = renderDistance
	}
}

// UpdateVelocity stores the camera velocity.
func (h *HostState) UpdateVelocity(velocity Velocity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.velocity = velocity
}

// Clear forgets the camera, e.g. when the host leaves its world.
func (h *HostState) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hasCamera = false
	h.velocity = Velocity{}
}

func (h *HostState) Camera() (Camera, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.camera, h.hasCamera
}

func (h *HostState) RenderDistance() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.renderDistance
}

func (h *HostState) Velocity() Velocity {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.velocity
}

func (h *HostState) UpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.updatedAt
}
