package app

import (
	"github.com/getsentry/sentry-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/config"
	"github.com/mindplus/offloader/internal/coordinator"
	"github.com/mindplus/offloader/internal/execution/pool"
	"github.com/mindplus/offloader/internal/execution/supervisor"
	"github.com/mindplus/offloader/internal/ports"
	"github.com/mindplus/offloader/internal/transport/broker"
	"github.com/mindplus/offloader/internal/transport/channel"
)

// Shared provides the supervisor, both coordinators and the render pool.
func Shared(cfg config.Config) fx.Option {
	return fx.Module(
		"shared",
		// provide global config
		fx.Supply(cfg),
		// provide component configs
		fx.Supply(cfg.Coordinator, cfg.Pool, cfg.Channel, cfg.Broker),
		// provide process management
		fx.Provide(NewSupervisor),
		fx.Provide(NewReclaimer),
		// provide coordinators
		fx.Provide(NewHostState),
		fx.Provide(NewGeneration),
		fx.Provide(NewRuntime),
		fx.Provide(func(r *coordinator.Runtime) *pool.Pool { return r.Pool() }),
		// the coordinators run without consumers, force their construction
		fx.Invoke(func(*coordinator.Generation, *coordinator.Runtime) {}),
	)
}

func NewSupervisor(lc fx.Lifecycle, log *zap.Logger) *supervisor.Supervisor {
	// unexpected worker exits are reported when sentry is configured
	var hub *sentry.Hub
	if sentry.CurrentHub().Client() != nil {
		hub = sentry.CurrentHub()
	}

	sv := supervisor.New(supervisor.Params{Hub: hub, Log: log})

	// registered first, stopped last
	lc.Append(fx.StopHook(sv.StopAll))

	return sv
}

func NewReclaimer(cfg config.Config, log *zap.Logger) *ports.Reclaimer {
	return ports.New(ports.Params{SettleDelay: cfg.Ports.SettleDelay, Log: log})
}

func NewHostState(cfg pool.Config) *coordinator.HostState {
	return coordinator.NewHostState(cfg.SimulationDistance)
}

type GenerationParams struct {
	fx.In

	Config     coordinator.Config
	Channel    channel.Config
	Supervisor *supervisor.Supervisor
	Ports      *ports.Reclaimer
	Log        *zap.Logger
}

func NewGeneration(params GenerationParams, lc fx.Lifecycle) *coordinator.Generation {
	gen := coordinator.NewGeneration(coordinator.GenerationParams{
		Config:     params.Config,
		Supervisor: params.Supervisor,
		Ports:      params.Ports,
		Channel:    params.Channel,
		Log:        params.Log,
	})

	lc.Append(fx.Hook{
		OnStart: gen.Initialize,
		OnStop:  gen.Shutdown,
	})

	return gen
}

type RuntimeParams struct {
	fx.In

	Config     coordinator.Config
	Pool       pool.Config
	Channel    channel.Config
	Broker     broker.Config
	Supervisor *supervisor.Supervisor
	Ports      *ports.Reclaimer
	Host       *coordinator.HostState
	Log        *zap.Logger
}

func NewRuntime(params RuntimeParams, lc fx.Lifecycle) (*coordinator.Runtime, error) {
	runtime, err := coordinator.NewRuntime(coordinator.RuntimeParams{
		Config:     params.Config,
		Pool:       params.Pool,
		Supervisor: params.Supervisor,
		Ports:      params.Ports,
		Channel:    params.Channel,
		Broker:     params.Broker,
		Host:       params.Host,
		Log:        params.Log,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: runtime.Initialize,
		OnStop:  runtime.Shutdown,
	})

	return runtime, nil
}
