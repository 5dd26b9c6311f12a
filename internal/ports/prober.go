package ports

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Prober inspects and frees local TCP ports.
type Prober interface {
	// Probe reports whether port is bound and which processes hold it.
	// A busy port may report no pids when ownership cannot be resolved.
	Probe(ctx context.Context, port int) (bool, []int32, error)

	// Terminate kills the process with the given pid.
	Terminate(ctx context.Context, pid int32) error
}

// SystemProber resolves port ownership from the OS connection table.
type SystemProber struct{}

var _ Prober = SystemProber{}

func (SystemProber) Probe(ctx context.Context, port int) (bool, []int32, error) {
	conns, err := net.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return false, nil, fmt.Errorf("error listing connections: %w", err)
	}

	busy := false
	seen := make(map[int32]struct{})
	pids := []int32{}

	for _, conn := range conns {
		if conn.Laddr.Port != uint32(port) || conn.Status != "LISTEN" {
			continue
		}

		busy = true

		if conn.Pid <= 0 {
			continue
		}

		if _, ok := seen[conn.Pid]; !ok {
			seen[conn.Pid] = struct{}{}
			pids = append(pids, conn.Pid)
		}
	}

	return busy, pids, nil
}

func (SystemProber) Terminate(ctx context.Context, pid int32) error {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}

	return proc.KillWithContext(ctx)
}
