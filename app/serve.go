package app

import (
	"go.uber.org/fx"

	"github.com/mindplus/offloader/handler"
	"github.com/mindplus/offloader/internal/coordinator"
	"github.com/mindplus/offloader/internal/execution/supervisor"
	"github.com/mindplus/offloader/internal/server"
	"github.com/mindplus/offloader/util/logging"
)

// Serve exposes the coordinators on the admin http server.
func Serve(config server.HttpConfig) fx.Option {
	return fx.Module(
		"serve",
		// rename logger for module
		logging.DecorateLogger("serve"),
		// bind the components to the handler interfaces
		fx.Provide(
			func(g *coordinator.Generation) handler.Generator { return g },
			func(r *coordinator.Runtime) handler.Streams { return r },
			func(s *supervisor.Supervisor) handler.Workers { return s },
		),
		// provide handlers
		handler.Module(),
		// provide server
		server.Module(config),
	)
}
