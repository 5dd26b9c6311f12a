package channel

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotConnected     = errors.New("channel not connected")
	ErrAlreadyConnected = errors.New("channel already connected")
	ErrWrongPattern     = errors.New("operation not supported by channel pattern")
	ErrWouldBlock       = errors.New("channel would block")
	ErrClosed           = errors.New("channel closed")
)

// Pattern is the messaging discipline of a channel.
type Pattern int

const (
	// StreamPush sends one-way messages, order preserved.
	StreamPush Pattern = iota
	// StreamPull receives one-way messages.
	StreamPull
	// SyncRequest sends a request; every send must be followed by
	// exactly one receive.
	SyncRequest
	// SyncReply receives a request and answers it.
	SyncReply
)

func (p Pattern) String() string {
	switch p {
	case StreamPush:
		return "push"
	case StreamPull:
		return "pull"
	case SyncRequest:
		return "request"
	case SyncReply:
		return "reply"
	default:
		return fmt.Sprintf("pattern(%d)", int(p))
	}
}

func (p Pattern) canSend() bool {
	return p != StreamPull
}

func (p Pattern) canReceive() bool {
	return p != StreamPush
}

// Mode selects whether Send and Receive may wait.
type Mode int

const (
	Blocking Mode = iota
	NonBlocking
)

// Spec describes a channel endpoint.
type Spec struct {
	Pattern Pattern
	Address string
}

type Config struct {
	// OutboxSize bounds the number of push messages waiting to be
	// written to the socket.
	OutboxSize int `conf:"outbox_size"`

	// DialRetry is the interval between connection attempts.
	DialRetry time.Duration `conf:"dial_retry"`
}

func DefaultConfig() Config {
	return Config{
		OutboxSize: 256,
		DialRetry:  250 * time.Millisecond,
	}
}

// Endpoint returns the tcp address of a worker port.
func Endpoint(host string, port int) string {
	return fmt.Sprintf("tcp://%s:%d", host, port)
}
