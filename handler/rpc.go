package handler

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/coordinator"
	"github.com/mindplus/offloader/internal/execution/pool"
)

type RPCParams struct {
	fx.In

	Pool      *pool.Pool
	Generator Generator
	Streams   Streams
	Workers   Workers
	Host      *coordinator.HostState
	Log       *zap.Logger
}

// NewRPCServer registers the pool, gen, runtime and supervisor namespaces.
func NewRPCServer(params RPCParams) (*rpc.Server, error) {
	server := rpc.NewServer()

	services := map[string]any{
		"pool":       &PoolService{pool: params.Pool, streams: params.Streams},
		"gen":        &GenService{gen: params.Generator},
		"runtime":    &RuntimeService{streams: params.Streams, host: params.Host},
		"supervisor": &SupervisorService{workers: params.Workers},
	}

	for name, service := range services {
		if err := server.RegisterName(name, service); err != nil {
			server.Stop()
			return nil, fmt.Errorf("error registering %s service: %w", name, err)
		}
	}

	params.Log.Named("rpc").Debug("registered rpc services", zap.Int("count", len(services)))

	return server, nil
}

func NewLifecycleRPCServer(params RPCParams, lc fx.Lifecycle) (*rpc.Server, error) {
	server, err := NewRPCServer(params)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(func(context.Context) {
		server.Stop()
	}))

	return server, nil
}
