package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/execution/pool"
	"github.com/mindplus/offloader/internal/execution/supervisor"
)

type HealthStatus string

const (
	StatusOK       HealthStatus = "ok"
	StatusDegraded HealthStatus = "degraded"
)

type HealthResponse struct {
	Status  HealthStatus            `json:"status"`
	Workers []supervisor.WorkerInfo `json:"workers"`
	Pool    pool.PoolState          `json:"pool"`
}

type HealthHandlerParams struct {
	fx.In

	Pool    *pool.Pool
	Workers Workers
	Log     *zap.Logger
}

// HealthHandler reports worker liveness and the pool state. A worker that
// exited turns the status degraded; the orchestrator keeps running.
type HealthHandler struct {
	pool    *pool.Pool
	workers Workers
	log     *zap.Logger
}

func NewHealthHandler(params HealthHandlerParams) *HealthHandler {
	return &HealthHandler{
		pool:    params.Pool,
		workers: params.Workers,
		log:     params.Log.Named("health"),
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := HealthResponse{
		Status:  StatusOK,
		Workers: h.workers.Workers(),
		Pool:    h.pool.Stats(),
	}

	for _, worker := range res.Workers {
		if !worker.Running {
			res.Status = StatusDegraded
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		h.log.Debug("failed to write response", zap.Error(err))
	}
}
