package config

import (
	_ "embed"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mindplus/offloader/internal/coordinator"
	"github.com/mindplus/offloader/internal/execution/pool"
	"github.com/mindplus/offloader/internal/ports"
	"github.com/mindplus/offloader/internal/server"
	"github.com/mindplus/offloader/internal/transport/broker"
	"github.com/mindplus/offloader/internal/transport/channel"
	"github.com/mindplus/offloader/util/conf"
)

type PortsConfig struct {
	// SettleDelay is how long to wait after terminating a stale port
	// owner before probing the port again.
	SettleDelay time.Duration `conf:"settle_delay"`
}

type Config struct {
	// LogLevel is the log level for the application
	LogLevel string `conf:"log_level"`

	// LogFormat is the log format for the application
	LogFormat string `conf:"log_format"`

	// Coordinator configures the worker processes and both coordinators.
	Coordinator coordinator.Config `conf:"coordinator"`

	// Pool configures the render pool.
	Pool pool.Config `conf:"pool"`

	// Channel configures the worker sockets.
	Channel channel.Config `conf:"channel"`

	// Broker configures the render pool broker.
	Broker broker.Config `conf:"broker"`

	Ports PortsConfig `conf:"ports"`

	// Http is the admin server.
	Http server.HttpConfig `conf:"http"`
}

// DefaultConfig returns the flat default map every other source is layered
// on.
func DefaultConfig() conf.DefaultConfig {
	c := coordinator.DefaultConfig()
	p := pool.DefaultConfig()
	ch := channel.DefaultConfig()
	b := broker.DefaultConfig()

	return conf.Merge(
		conf.DefaultConfig{
			"log_level":  "info",
			"log_format": "production",
		},
		conf.MergeDefaults("coordinator", conf.DefaultConfig{
			"host":          c.Host,
			"executable":    c.Executable,
			"startup_delay": c.StartupDelay.String(),
		}),
		conf.MergeDefaults("coordinator.generation", conf.DefaultConfig{
			"structure.enabled": c.Generation.Structure.Enabled,
			"structure.port":    c.Generation.Structure.Port,
			"terrain.enabled":   c.Generation.Terrain.Enabled,
			"terrain.port":      c.Generation.Terrain.Port,
			"biome.enabled":     c.Generation.Biome.Enabled,
			"biome.port":        c.Generation.Biome.Port,
			"entity.enabled":    c.Generation.Entity.Enabled,
			"entity.port":       c.Generation.Entity.Port,
			"seed":              c.Generation.Seed,
			"dimension":         c.Generation.Dimension,
			"request_timeout":   c.Generation.RequestTimeout.String(),
			"max_links":         c.Generation.MaxLinks,
		}),
		conf.MergeDefaults("coordinator.runtime", conf.DefaultConfig{
			"ai.enabled":                       c.Runtime.AI.Enabled,
			"ai.port":                          c.Runtime.AI.Port,
			"preloader.enabled":                c.Runtime.Preloader.Enabled,
			"preloader.port":                   c.Runtime.Preloader.Port,
			"world_gen.enabled":                c.Runtime.WorldGen.Enabled,
			"world_gen.port":                   c.Runtime.WorldGen.Port,
			"renderer.multi":                   c.Runtime.Renderer.Multi,
			"renderer.port":                    c.Runtime.Renderer.Port,
			"renderer.type":                    c.Runtime.Renderer.Type,
			"renderer.width":                   c.Runtime.Renderer.Width,
			"renderer.height":                  c.Runtime.Renderer.Height,
			"broker_port":                      c.Runtime.BrokerPort,
			"preloader_perf.window":            c.Runtime.PreloaderPerf.Window,
			"preloader_perf.low":               c.Runtime.PreloaderPerf.Low,
			"preloader_perf.high":              c.Runtime.PreloaderPerf.High,
			"scheduler.tick":                   c.Runtime.Scheduler.Tick.String(),
			"scheduler.window":                 c.Runtime.Scheduler.Window.String(),
			"scheduler.sweep_interval":         c.Runtime.Scheduler.SweepInterval.String(),
			"preload.radius":                   c.Runtime.Preload.Radius,
			"preload.look_ahead":               c.Runtime.Preload.LookAhead,
			"preload.scheduler.tick":           c.Runtime.Preload.Scheduler.Tick.String(),
			"preload.scheduler.window":         c.Runtime.Preload.Scheduler.Window.String(),
			"preload.scheduler.sweep_interval": c.Runtime.Preload.Scheduler.SweepInterval.String(),
		}),
		conf.MergeDefaults("pool", conf.DefaultConfig{
			"enabled":             p.Enabled,
			"max_workers":         p.MaxWorkers,
			"queue_capacity":      p.QueueCapacity,
			"poll_timeout":        p.PollTimeout.String(),
			"monitor_interval":    p.MonitorInterval.String(),
			"sweep_interval":      p.SweepInterval.String(),
			"stats_interval":      p.StatsInterval.String(),
			"result_ttl":          p.ResultTTL.String(),
			"result_high_water":   p.ResultHighWater,
			"scale_up_rate":       p.ScaleUpRate,
			"soft_degrade_rate":   p.SoftDegradeRate,
			"simulation_distance": p.SimulationDistance,
			"perf.window":         p.Perf.Window,
			"perf.low":            p.Perf.Low,
			"perf.high":           p.Perf.High,
		}),
		conf.MergeDefaults("channel", conf.DefaultConfig{
			"outbox_size": ch.OutboxSize,
			"dial_retry":  ch.DialRetry.String(),
		}),
		conf.MergeDefaults("broker", conf.DefaultConfig{
			"host":           b.Host,
			"max_frame_size": b.MaxFrameSize,
			"poll_interval":  b.PollInterval.String(),
			"write_timeout":  b.WriteTimeout.String(),
		}),
		conf.MergeDefaults("ports", conf.DefaultConfig{
			"settle_delay": ports.DefaultSettleDelay.String(),
		}),
		conf.MergeDefaults("http", conf.DefaultConfig{
			"host": "localhost",
			"port": 8080,
			"h2c":  false,
		}),
	)
}

//go:embed schema.json
var schema []byte

// Schema returns the JSON schema the merged configuration is validated
// against.
func Schema() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
}
