package coordinator

import (
	"time"

	"github.com/mindplus/offloader/internal/execution/perf"
)

type WorkerConfig struct {
	// Enabled controls whether the worker process is started.
	Enabled bool `conf:"enabled"`

	// Port is the TCP port the worker binds.
	Port int `conf:"port"`
}

type GenerationConfig struct {
	Structure WorkerConfig `conf:"structure"`
	Terrain   WorkerConfig `conf:"terrain"`
	Biome     WorkerConfig `conf:"biome"`
	Entity    WorkerConfig `conf:"entity"`

	// Seed and Dimension are sent with every chunk request.
	Seed      int64  `conf:"seed"`
	Dimension string `conf:"dimension"`

	// RequestTimeout bounds a single request/reply round-trip.
	RequestTimeout time.Duration `conf:"request_timeout"`

	// MaxLinks bounds the concurrent request channels per worker.
	MaxLinks int `conf:"max_links"`
}

type RendererConfig struct {
	// Multi selects the multi-renderer process over the plain render
	// worker.
	Multi bool `conf:"multi"`

	Port int `conf:"port"`

	// Type, Width and Height are passed to the multi-renderer.
	Type   string `conf:"type"`
	Width  int    `conf:"width"`
	Height int    `conf:"height"`
}

type SchedulerConfig struct {
	// Tick is the period of the render scheduler.
	Tick time.Duration `conf:"tick"`

	// Window is how long a submitted chunk is skipped before it may be
	// submitted again.
	Window time.Duration `conf:"window"`

	// SweepInterval is the period of the window cleanup.
	SweepInterval time.Duration `conf:"sweep_interval"`
}

type PreloadConfig struct {
	// Radius is the square radius in chunks preloaded around the camera.
	Radius int `conf:"radius"`

	// LookAhead is the number of chunks preloaded along the heading of a
	// moving camera.
	LookAhead int `conf:"look_ahead"`

	Scheduler SchedulerConfig `conf:"scheduler"`
}

type RuntimeConfig struct {
	AI        WorkerConfig   `conf:"ai"`
	Preloader WorkerConfig   `conf:"preloader"`
	WorldGen  WorkerConfig   `conf:"world_gen"`
	Renderer  RendererConfig `conf:"renderer"`

	// BrokerPort is where render peers of the pool connect.
	BrokerPort int `conf:"broker_port"`

	// PreloaderPerf gates preload tasks on the host frame rate.
	PreloaderPerf perf.Config `conf:"preloader_perf"`

	// Preload drives the chunk preloader from the host camera.
	Preload PreloadConfig `conf:"preload"`

	Scheduler SchedulerConfig `conf:"scheduler"`
}

type Config struct {
	// Host is the interface workers bind and coordinators dial.
	Host string `conf:"host"`

	// Executable is the binary launched for built-in workers. Empty means
	// the running executable.
	Executable string `conf:"executable"`

	// StartupDelay is the pause after launching workers before the
	// coordinator reports ready.
	StartupDelay time.Duration `conf:"startup_delay"`

	Generation GenerationConfig `conf:"generation"`
	Runtime    RuntimeConfig    `conf:"runtime"`
}

const (
	MaxRenderRadius     = 32
	renderRadiusPadding = 4
)

func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		StartupDelay: time.Second,
		Generation: GenerationConfig{
			Structure:      WorkerConfig{Enabled: true, Port: 5555},
			Terrain:        WorkerConfig{Enabled: true, Port: 5556},
			Biome:          WorkerConfig{Enabled: true, Port: 5557},
			Entity:         WorkerConfig{Enabled: true, Port: 5558},
			Dimension:      "overworld",
			RequestTimeout: 5 * time.Second,
			MaxLinks:       2,
		},
		Runtime: RuntimeConfig{
			AI:        WorkerConfig{Enabled: true, Port: 5559},
			Preloader: WorkerConfig{Enabled: true, Port: 5560},
			WorldGen:  WorkerConfig{Enabled: true, Port: 5570},
			Renderer: RendererConfig{
				Multi:  true,
				Port:   5580,
				Type:   "vulkan",
				Width:  1920,
				Height: 1080,
			},
			BrokerPort: 5581,
			PreloaderPerf: perf.Config{
				Window: perf.DefaultWindow,
				Low:    perf.DefaultLow,
				High:   perf.DefaultHigh,
			},
			Preload: PreloadConfig{
				Radius:    10,
				LookAhead: 8,
				Scheduler: SchedulerConfig{
					Tick:          50 * time.Millisecond,
					Window:        30 * time.Second,
					SweepInterval: 10 * time.Second,
				},
			},
			Scheduler: SchedulerConfig{
				Tick:          16 * time.Millisecond,
				Window:        5 * time.Second,
				SweepInterval: 5 * time.Second,
			},
		},
	}
}
