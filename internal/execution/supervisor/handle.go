package supervisor

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// handle is the supervisor-owned record of a running worker process.
type handle struct {
	id        string
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time

	alive    atomic.Bool
	stopping atomic.Bool

	// output is the read end of the pipe shared by stdout and stderr
	output *os.File

	// exited is closed once the process has been reaped
	exited chan struct{}
	status ExitStatus
}

func launch(spec WorkerSpec) (*handle, error) {
	if len(spec.Command) == 0 || spec.Command[0] == "" {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)

	if spec.Env != nil {
		env := os.Environ()
		for k, v := range spec.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	if spec.Cwd != "" {
		cmd.Dir = spec.Cwd
	}

	// stdout and stderr share one pipe, so lines keep their order
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	cmd.Stdout = w
	cmd.Stderr = w

	initCmd(cmd)

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	// the child holds its own copy of the write end
	w.Close()

	h := &handle{
		id:        spec.ID,
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		startedAt: time.Now(),
		output:    r,
		exited:    make(chan struct{}),
	}
	h.alive.Store(true)

	return h, nil
}

// pipeOutput logs every output line of the worker until the pipe closes.
func (h *handle) pipeOutput(log *zap.Logger) {
	defer h.output.Close()

	scanner := bufio.NewScanner(h.output)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		log.Info(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		log.Debug("error reading worker output", zap.Error(err))
	}
}

// wait reaps the process and records its exit status.
func (h *handle) wait() {
	err := h.cmd.Wait()

	h.status = exitStatus(err)
	h.alive.Store(false)

	close(h.exited)
}

func (h *handle) info() WorkerInfo {
	info := WorkerInfo{
		ID:        h.id,
		Pid:       h.pid,
		Running:   h.alive.Load(),
		StartedAt: h.startedAt,
	}

	// status is written before alive is cleared
	if !info.Running {
		status := h.status
		info.Exit = &status
	}

	return info
}

// MARK: - Helpers

func exitStatus(err error) ExitStatus {
	var cell int
	var code *int
	var signo *int

	if err == nil {
		code = &cell
	} else if exitError, ok := err.(*exec.ExitError); ok {
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
			if c := status.ExitStatus(); c >= 0 {
				cell = c
				code = &cell
			} else {
				// terminated by a signal
				cell = int(status.Signal())
				signo = &cell
			}
		}
	}

	if signo == nil && code == nil {
		// unknown, report a generic failure
		cell = 1
		code = &cell
	}

	return ExitStatus{Code: code, Signal: signo}
}
