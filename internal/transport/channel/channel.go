package channel

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/go-zeromq/zmq4"
	"go.uber.org/zap"
)

type Params struct {
	Spec   Spec
	Config Config

	Log *zap.Logger
}

type received struct {
	data []byte
	err  error
}

// Channel is a single message socket with one fixed pattern. Connect or
// Bind it once, then Send and Receive from any goroutine. Close releases
// the socket.
type Channel struct {
	spec   Spec
	config Config

	mu        sync.Mutex
	socket    zmq4.Socket
	connected atomic.Bool
	broken    atomic.Bool

	// pending is the in-flight receive. At most one socket read runs at
	// a time, and its result is kept for the next Receive when the caller
	// gives up waiting.
	pending chan received

	outbox chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	closed    chan struct{}
	closeOnce sync.Once

	log *zap.Logger
}

func New(params Params) *Channel {
	config := params.Config
	if config.OutboxSize <= 0 {
		config.OutboxSize = DefaultConfig().OutboxSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Channel{
		spec:   params.Spec,
		config: config,
		ctx:    ctx,
		cancel: cancel,
		closed: make(chan struct{}),
		log: params.Log.Named("channel").With(
			zap.Stringer("pattern", params.Spec.Pattern),
			zap.String("address", params.Spec.Address),
		),
	}
}

func (c *Channel) Spec() Spec {
	return c.spec
}

// Connect dials the channel's address.
func (c *Channel) Connect() error {
	return c.open(func(s zmq4.Socket) error {
		return s.Dial(c.spec.Address)
	})
}

// Bind listens on the channel's address.
func (c *Channel) Bind() error {
	return c.open(func(s zmq4.Socket) error {
		return s.Listen(c.spec.Address)
	})
}

func (c *Channel) Connected() bool {
	return c.connected.Load()
}

// Broken reports whether a request timed out, leaving the request/reply
// sequence out of step. A broken channel should be closed and replaced.
func (c *Channel) Broken() bool {
	return c.broken.Load()
}

// Addr returns the bound address, if any.
func (c *Channel) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.socket == nil {
		return nil
	}

	return c.socket.Addr()
}

// Send writes data to the channel. Push sends are queued and written in
// order by a single writer; in NonBlocking mode a full queue yields
// ErrWouldBlock. Request and reply sends wait for the socket, bounded by
// ctx.
func (c *Channel) Send(ctx context.Context, data []byte, mode Mode) error {
	if err := c.ready(c.spec.Pattern.canSend()); err != nil {
		return err
	}

	if c.spec.Pattern == StreamPush {
		return c.enqueue(ctx, data, mode)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.socket.Send(zmq4.NewMsg(data))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		c.broken.Store(true)
		return ctx.Err()
	case <-c.closed:
		return ErrClosed
	}
}

// Receive returns the next message. In NonBlocking mode it returns nil
// with no error when nothing is available. A blocking receive that runs
// out of time returns the context error; the message it was waiting for
// is handed to the next Receive. A closed channel returns ErrClosed.
func (c *Channel) Receive(ctx context.Context, mode Mode) ([]byte, error) {
	if err := c.ready(c.spec.Pattern.canReceive()); err != nil {
		return nil, err
	}

	pending := c.pendingReceive()

	if mode == NonBlocking {
		select {
		case r := <-pending:
			return c.complete(pending, r)
		case <-c.closed:
			return nil, ErrClosed
		default:
			return nil, nil
		}
	}

	select {
	case r := <-pending:
		return c.complete(pending, r)
	case <-c.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Request sends data and waits for the reply. Running out of time marks
// the channel broken.
func (c *Channel) Request(ctx context.Context, data []byte) ([]byte, error) {
	if c.spec.Pattern != SyncRequest {
		return nil, ErrWrongPattern
	}

	if err := c.Send(ctx, data, Blocking); err != nil {
		return nil, err
	}

	reply, err := c.Receive(ctx, Blocking)
	if err != nil && ctx.Err() != nil {
		c.broken.Store(true)
	}

	return reply, err
}

// Close releases the socket. It is safe to call more than once.
func (c *Channel) Close() error {
	var err error

	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancel()

		c.mu.Lock()
		socket := c.socket
		c.connected.Store(false)
		c.mu.Unlock()

		if socket != nil {
			err = socket.Close()
		}

		c.log.Debug("channel closed")
	})

	return err
}

// MARK: - internal

func (c *Channel) open(attach func(zmq4.Socket) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	if c.socket != nil {
		return ErrAlreadyConnected
	}

	socket := c.newSocket()

	if err := attach(socket); err != nil {
		socket.Close()
		c.log.Warn("error opening channel", zap.Error(err))
		return err
	}

	c.socket = socket
	c.connected.Store(true)

	if c.spec.Pattern == StreamPush {
		c.outbox = make(chan []byte, c.config.OutboxSize)
		go c.writeLoop(socket, c.outbox)
	}

	c.log.Debug("channel opened")

	return nil
}

func (c *Channel) newSocket() zmq4.Socket {
	opts := []zmq4.Option{
		zmq4.WithLogger(zap.NewStdLog(c.log)),
	}

	if c.config.DialRetry > 0 {
		opts = append(opts, zmq4.WithDialerRetry(c.config.DialRetry))
	}

	switch c.spec.Pattern {
	case StreamPush:
		return zmq4.NewPush(c.ctx, opts...)
	case StreamPull:
		return zmq4.NewPull(c.ctx, opts...)
	case SyncRequest:
		return zmq4.NewReq(c.ctx, opts...)
	default:
		return zmq4.NewRep(c.ctx, opts...)
	}
}

func (c *Channel) ready(allowed bool) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	if !allowed {
		return ErrWrongPattern
	}

	if !c.connected.Load() {
		return ErrNotConnected
	}

	return nil
}

func (c *Channel) enqueue(ctx context.Context, data []byte, mode Mode) error {
	if mode == NonBlocking {
		select {
		case c.outbox <- data:
			return nil
		case <-c.closed:
			return ErrClosed
		default:
			return ErrWouldBlock
		}
	}

	select {
	case c.outbox <- data:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeLoop is the single writer of a push socket.
func (c *Channel) writeLoop(socket zmq4.Socket, outbox <-chan []byte) {
	for {
		select {
		case <-c.closed:
			return
		case data := <-outbox:
			if err := socket.Send(zmq4.NewMsg(data)); err != nil {
				c.log.Debug("error sending message", zap.Error(err))
			}
		}
	}
}

func (c *Channel) pendingReceive() chan received {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		c.pending = make(chan received, 1)

		socket := c.socket
		pending := c.pending

		go func() {
			msg, err := socket.Recv()
			if err != nil {
				pending <- received{err: err}
				return
			}
			pending <- received{data: msg.Bytes()}
		}()
	}

	return c.pending
}

func (c *Channel) complete(pending chan received, r received) ([]byte, error) {
	c.mu.Lock()
	if c.pending == pending {
		c.pending = nil
	}
	c.mu.Unlock()

	if r.err != nil {
		select {
		case <-c.closed:
			return nil, ErrClosed
		default:
		}

		return nil, r.err
	}

	return r.data, nil
}
