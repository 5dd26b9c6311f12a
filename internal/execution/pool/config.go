package pool

import (
	"time"

	"github.com/mindplus/offloader/internal/execution/perf"
)

type Config struct {
	// Enabled turns multi-process offload on. A disabled pool keeps zero
	// workers and drops the tasks it dequeues.
	Enabled bool `conf:"enabled"`

	// MaxWorkers is the upper bound of concurrently running workers.
	MaxWorkers int `conf:"max_workers"`

	// QueueCapacity bounds the task queue. Submitting to a full queue
	// evicts the oldest task.
	QueueCapacity int `conf:"queue_capacity"`

	// PollTimeout is how long the dispatcher waits for a task before
	// re-checking whether it should stop.
	PollTimeout time.Duration `conf:"poll_timeout"`

	// MonitorInterval is the period of the scaling loop.
	MonitorInterval time.Duration `conf:"monitor_interval"`

	// SweepInterval is the period of the result eviction loop.
	SweepInterval time.Duration `conf:"sweep_interval"`

	// StatsInterval is the period of the stats log line. Zero disables it.
	StatsInterval time.Duration `conf:"stats_interval"`

	// ResultTTL is the age after which an unclaimed result is evicted.
	ResultTTL time.Duration `conf:"result_ttl"`

	// ResultHighWater is the number of unclaimed results kept after a
	// sweep. The oldest are evicted first.
	ResultHighWater int `conf:"result_high_water"`

	// ScaleUpRate is the frame rate above which a congested queue may
	// grow the pool.
	ScaleUpRate float64 `conf:"scale_up_rate"`

	// SoftDegradeRate is the frame rate below which the pool sheds a
	// worker even when the queue is busy.
	SoftDegradeRate float64 `conf:"soft_degrade_rate"`

	// SimulationDistance is the initial scheduling radius in chunks.
	SimulationDistance int `conf:"simulation_distance"`

	// Perf configures the frame rate monitor that gates the pool.
	Perf perf.Config `conf:"perf"`
}

const (
	MinSimulationDistance = 4
	MaxSimulationDistance = 32
)

func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		MaxWorkers:         4,
		QueueCapacity:      100,
		PollTimeout:        100 * time.Millisecond,
		MonitorInterval:    500 * time.Millisecond,
		SweepInterval:      5 * time.Second,
		StatsInterval:      5 * time.Second,
		ResultTTL:          30 * time.Second,
		ResultHighWater:    50,
		ScaleUpRate:        30,
		SoftDegradeRate:    25,
		SimulationDistance: 12,
		Perf: perf.Config{
			Window: perf.DefaultWindow,
			Low:    perf.DefaultLow,
			High:   perf.DefaultHigh,
		},
	}
}

func clampDistance(d int) int {
	return max(MinSimulationDistance, min(MaxSimulationDistance, d))
}
