package handler

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module("handler",
		fx.Provide(NewLifecycleRPCServer),
		fx.Provide(NewHealthHandler),
		fx.Provide(NewRPCRoute),
		fx.Provide(NewHealthRoute),
	)
}
