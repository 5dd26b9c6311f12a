package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/models"
)

type SchedulerParams struct {
	Config SchedulerConfig

	// Host returns the attached host, or nil.
	Host func() Host

	// Radius returns the scheduling radius in chunks for the host.
	Radius func(Host) int

	// LookAhead returns how many chunks past the camera chunk are
	// scheduled along the camera heading. Optional.
	LookAhead func(Host) int

	// Ready gates every pass. Optional.
	Ready func() bool

	// Budget caps the submissions of one pass. Optional, a negative
	// budget is unlimited.
	Budget func() int

	// Submit hands a task on and reports whether it was accepted.
	Submit func(models.RenderTask) bool

	Log *zap.Logger
}

// Scheduler walks square rings of chunks around the camera, nearest first,
// then the chunks ahead of a moving camera, and submits every chunk that
// was not submitted within the window.
type Scheduler struct {
	config    SchedulerConfig
	host      func() Host
	radius    func(Host) int
	lookAhead func(Host) int
	ready     func() bool
	budget    func() int
	submit    func(models.RenderTask) bool

	mu        sync.Mutex
	submitted map[string]time.Time

	cancel context.CancelFunc
	wg     conc.WaitGroup

	log *zap.Logger
}

func NewScheduler(params SchedulerParams) *Scheduler {
	return &Scheduler{
		config:    params.Config,
		host:      params.Host,
		radius:    params.Radius,
		lookAhead: params.LookAhead,
		ready:     params.Ready,
		budget:    params.Budget,
		submit:    params.Submit,
		submitted: make(map[string]time.Time),
		log:       params.Log.Named("scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.cancel != nil || s.config.Tick <= 0 {
		return
	}

	ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.wg.Go(func() {
		every(ctx, s.config.Tick, func(now time.Time) { s.Tick(now) })
	})

	if s.config.SweepInterval > 0 {
		s.wg.Go(func() {
			every(ctx, s.config.SweepInterval, func(now time.Time) { s.Sweep(now) })
		})
	}
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.cancel = nil
}

// Tick runs one scheduling pass and returns the number of submitted
// chunks.
func (s *Scheduler) Tick(now time.Time) int {
	if s.ready != nil && !s.ready() {
		return 0
	}

	host := s.host()
	if host == nil {
		return 0
	}

	camera, ok := host.Camera()
	if !ok {
		return 0
	}

	budget := -1
	if s.budget != nil {
		budget = s.budget()
	}
	if budget == 0 {
		return 0
	}

	cx, cz := camera.Chunk()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0

	visit := func(x, z int32) bool {
		key := models.Key(x, z)
		if _, ok := s.submitted[key]; ok {
			return true
		}

		task := models.RenderTask{ChunkX: x, ChunkZ: z, CameraY: camera.Y}
		if !s.submit(task) {
			return true
		}

		s.submitted[key] = now
		count++

		return budget < 0 || count < budget
	}

	if !forEachRing(cx, cz, s.radius(host), visit) {
		return count
	}

	if s.lookAhead != nil {
		forEachAhead(cx, cz, s.lookAhead(host), host.Velocity(), visit)
	}

	return count
}

// Sweep forgets chunks submitted longer than the window ago.
func (s *Scheduler) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, at := range s.submitted {
		if now.Sub(at) > s.config.Window {
			delete(s.submitted, key)
			removed++
		}
	}

	if removed > 0 {
		s.log.Debug("released scheduled chunks", zap.Int("count", removed))
	}

	return removed
}

// Pending is the number of chunks inside the window.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.submitted)
}

// forEachRing visits the chunks around (cx, cz) ring by ring, from the
// center out to radius. It stops and returns false once fn does.
func forEachRing(cx, cz int32, radius int, fn func(x, z int32) bool) bool {
	for r := int32(0); r <= int32(radius); r++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if abs(dx) != r && abs(dz) != r {
					continue
				}
				if !fn(cx+dx, cz+dz) {
					return false
				}
			}
		}
	}

	return true
}

// forEachAhead visits up to n chunks past (cx, cz) along the heading of v.
// A camera too slow to have a heading visits nothing.
func forEachAhead(cx, cz int32, n int, v Velocity, fn func(x, z int32) bool) bool {
	dx, dz, ok := v.Direction()
	if !ok {
		return true
	}

	for i := int32(1); i <= int32(n); i++ {
		if !fn(cx+dx*i, cz+dz*i) {
			return false
		}
	}

	return true
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func every(ctx context.Context, interval time.Duration, fn func(time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fn(now)
		}
	}
}
