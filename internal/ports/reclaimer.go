package ports

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

const DefaultSettleDelay = 500 * time.Millisecond

type Params struct {
	// Prober inspects the ports. Defaults to SystemProber.
	Prober Prober

	// SettleDelay is how long to wait after terminating owners before
	// probing again.
	SettleDelay time.Duration

	Log *zap.Logger
}

// Reclaimer frees ports left bound by stale worker processes. It is
// advisory: a port reported free may be taken again before it is used.
type Reclaimer struct {
	prober Prober
	settle time.Duration
	self   int32
	log    *zap.Logger
}

func New(params Params) *Reclaimer {
	prober := params.Prober
	if prober == nil {
		prober = SystemProber{}
	}

	return &Reclaimer{
		prober: prober,
		settle: params.SettleDelay,
		self:   int32(os.Getpid()),
		log:    params.Log.Named("ports"),
	}
}

// Cleanup frees every port in ports and reports whether all of them ended
// up unbound. Failures are logged, never returned.
func (r *Reclaimer) Cleanup(ctx context.Context, ports []int) bool {
	ok := true

	for _, port := range ports {
		if !r.cleanupPort(ctx, port) {
			ok = false
		}
	}

	return ok
}

func (r *Reclaimer) cleanupPort(ctx context.Context, port int) bool {
	log := r.log.With(zap.Int("port", port))

	busy, pids, err := r.prober.Probe(ctx, port)
	if err != nil {
		log.Warn("error probing port", zap.Error(err))
		return false
	}

	if !busy {
		log.Debug("port is free")
		return true
	}

	log.Warn("port is in use, terminating owners", zap.Int32s("pids", pids))

	for _, pid := range pids {
		if pid == r.self {
			log.Warn("port is held by this process, skipping")
			continue
		}

		if err := r.prober.Terminate(ctx, pid); err != nil {
			log.Warn("error terminating owner", zap.Int32("pid", pid), zap.Error(err))
			continue
		}

		log.Info("terminated owner", zap.Int32("pid", pid))
	}

	if r.settle > 0 {
		select {
		case <-time.After(r.settle):
		case <-ctx.Done():
			return false
		}
	}

	busy, _, err = r.prober.Probe(ctx, port)
	if err != nil {
		log.Warn("error probing port", zap.Error(err))
		return false
	}

	if busy {
		log.Warn("port is still in use")
		return false
	}

	return true
}
