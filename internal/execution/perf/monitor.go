package perf

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Params struct {
	Config Config

	Log *zap.Logger
}

// Monitor derives a frame rate from the host's frame timestamps and turns it
// into a healthy/degraded signal through a Hysteresis.
type Monitor struct {
	mu sync.Mutex

	// ring of unix nano timestamps, zero means empty slot
	frames []int64
	next   int
	count  int

	rate    float64
	trigger *Hysteresis

	log *zap.Logger
}

func New(params Params) (*Monitor, error) {
	window := params.Config.Window
	if window < 2 {
		window = DefaultWindow
	}

	trigger, err := NewHysteresis(params.Config.Low, params.Config.High)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		frames:  make([]int64, window),
		rate:    DefaultInitialRate,
		trigger: trigger,
		log:     params.Log.Named("perf"),
	}, nil
}

// Record stores a frame timestamp and recomputes the rate once at least two
// samples exist.
func (m *Monitor) Record(ts time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames[m.next] = ts.UnixNano()
	m.next = (m.next + 1) % len(m.frames)

	if m.count < len(m.frames) {
		m.count++
	}

	rate, ok := m.meanRate()
	if !ok {
		return
	}

	m.observe(rate)
}

// Observe feeds an externally measured rate, bypassing the ring buffer.
// It returns the resulting health state.
func (m *Monitor) Observe(rate float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observe(rate)

	return m.trigger.Healthy()
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.trigger.Healthy()
}

func (m *Monitor) CurrentRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.rate
}

// Reset clears the samples and returns to the initial healthy state.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.frames)
	m.next = 0
	m.count = 0
	m.rate = DefaultInitialRate
	m.trigger.reset()
}

// MARK: - internal

func (m *Monitor) observe(rate float64) {
	m.rate = rate

	if !m.trigger.Update(rate) {
		return
	}

	if m.trigger.Healthy() {
		m.log.Info("rate recovered, resuming offload", zap.Float64("rate", rate))
	} else {
		m.log.Warn("rate critical, suspending offload", zap.Float64("rate", rate))
	}
}

// meanRate walks the valid samples oldest first and averages the positive
// deltas between neighbours.
func (m *Monitor) meanRate() (float64, bool) {
	if m.count < 2 {
		return 0, false
	}

	size := len(m.frames)
	start := (m.next - m.count + size) % size

	var (
		total int64
		n     int64
	)

	prev := m.frames[start]
	for i := 1; i < m.count; i++ {
		cur := m.frames[(start+i)%size]
		if delta := cur - prev; delta > 0 {
			total += delta
			n++
		}
		prev = cur
	}

	if n == 0 {
		return 0, false
	}

	return nanosPerSecond / (float64(total) / float64(n)), true
}
