package handler

import (
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mindplus/offloader/internal/server"
)

func NewRPCRoute(rpcServer *rpc.Server) server.HttpHandlerResult {
	return server.AsHttpHandler("/rpc", rpcServer)
}

func NewHealthRoute(handler *HealthHandler) server.HttpHandlerResult {
	return server.AsHttpHandler("/health", handler)
}
