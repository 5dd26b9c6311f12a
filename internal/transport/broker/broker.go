package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrNotRunning     = errors.New("broker is not running")
	ErrAlreadyStarted = errors.New("broker already started")
)

type Config struct {
	// Host is the interface the broker listens on.
	Host string `conf:"host"`

	// MaxFrameSize caps the payload a peer may send.
	MaxFrameSize int `conf:"max_frame_size"`

	// PollInterval bounds how long the accept loop and the dispatcher
	// wait before checking for shutdown.
	PollInterval time.Duration `conf:"poll_interval"`

	// WriteTimeout bounds a single write to a peer.
	WriteTimeout time.Duration `conf:"write_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		MaxFrameSize: DefaultMaxFrameSize,
		PollInterval: 100 * time.Millisecond,
		WriteTimeout: time.Second,
	}
}

// Handler receives every valid message read from a peer.
type Handler func(peer string, msg Message)

type Params struct {
	Config Config

	// Handler is called from the peer's reader goroutine. Optional.
	Handler Handler

	Log *zap.Logger
}

type peer struct {
	id   string
	conn net.Conn
}

// Broker is a TCP hub. Every accepted peer gets a reader goroutine, and a
// single dispatcher writes queued messages to all peers in enqueue order.
type Broker struct {
	config  Config
	handler Handler

	running  atomic.Bool
	listener *net.TCPListener

	// stopLoops ends the accept loop and the dispatcher
	stopLoops chan struct{}
	stopOnce  sync.Once
	loops     conc.WaitGroup
	readers   conc.WaitGroup

	peersMu sync.Mutex
	peers   map[string]*peer

	queueMu sync.Mutex
	queue   []Message
	notify  chan struct{}

	shutdownOnce sync.Once
	shutdownErr  error

	log *zap.Logger
}

func New(params Params) *Broker {
	config := params.Config

	defaults := DefaultConfig()
	if config.MaxFrameSize <= 0 {
		config.MaxFrameSize = defaults.MaxFrameSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}

	return &Broker{
		config:    config,
		handler:   params.Handler,
		stopLoops: make(chan struct{}),
		peers:     make(map[string]*peer),
		notify:    make(chan struct{}, 1),
		log:       params.Log.Named("broker"),
	}
}

// Start listens on port and launches the accept loop and the dispatcher.
// Port 0 picks a free port, see Addr.
func (b *Broker) Start(ctx context.Context, port int) error {
	if b.listener != nil {
		return ErrAlreadyStarted
	}

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(b.config.Host, fmt.Sprint(port)))
	if err != nil {
		b.log.Warn("failed to start broker", zap.Int("port", port), zap.Error(err))
		return fmt.Errorf("error listening on port %d: %w", port, err)
	}

	b.listener = ln.(*net.TCPListener)
	b.running.Store(true)

	b.loops.Go(b.acceptLoop)
	b.loops.Go(b.dispatchLoop)

	b.log.Info("broker started", zap.Stringer("addr", ln.Addr()))

	return nil
}

func (b *Broker) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}

	return b.listener.Addr()
}

func (b *Broker) Running() bool {
	return b.running.Load()
}

// Done is closed once the broker stops accepting and dispatching, either
// through Shutdown or a SHUTDOWN message from a peer.
func (b *Broker) Done() <-chan struct{} {
	return b.stopLoops
}

// SendMessage queues msg for every connected peer.
func (b *Broker) SendMessage(msg Message) error {
	if !b.running.Load() {
		return ErrNotRunning
	}

	if len(msg.Payload()) == 0 {
		return ErrEmptyPayload
	}

	b.queueMu.Lock()
	b.queue = append(b.queue, msg)
	b.queueMu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}

	return nil
}

func (b *Broker) Peers() int {
	b.peersMu.Lock()
	defer b.peersMu.Unlock()

	return len(b.peers)
}

// Shutdown stops the broker: running flag, accept loop, dispatcher, peers
// and finally the listener. Each step runs even if an earlier one failed.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.shutdownOnce.Do(func() {
		b.shutdownErr = b.shutdown(ctx)
	})

	return b.shutdownErr
}

func (b *Broker) shutdown(ctx context.Context) error {
	var err error

	b.running.Store(false)

	b.stop()

	if b.listener != nil {
		// wake a blocked Accept
		err = multierr.Append(err, b.listener.SetDeadline(time.Now()))
	}

	err = multierr.Append(err, wait(ctx, &b.loops))

	b.peersMu.Lock()
	peers := make([]*peer, 0, len(b.peers))
	for id, p := range b.peers {
		peers = append(peers, p)
		delete(b.peers, id)
	}
	b.peersMu.Unlock()

	for _, p := range peers {
		if closeErr := p.conn.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			err = multierr.Append(err, closeErr)
		}
	}

	if b.listener != nil {
		if closeErr := b.listener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			err = multierr.Append(err, closeErr)
		}
	}

	err = multierr.Append(err, wait(ctx, &b.readers))

	b.log.Info("broker shut down")

	return err
}

// MARK: - loops

func (b *Broker) stop() {
	b.stopOnce.Do(func() {
		close(b.stopLoops)
	})
}

func (b *Broker) stopped() bool {
	select {
	case <-b.stopLoops:
		return true
	default:
		return false
	}
}

func (b *Broker) acceptLoop() {
	for !b.stopped() {
		if err := b.listener.SetDeadline(time.Now().Add(b.config.PollInterval)); err != nil {
			b.log.Debug("error setting accept deadline", zap.Error(err))
		}

		conn, err := b.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			if !b.stopped() {
				b.log.Warn("error accepting connection", zap.Error(err))
			}

			if errors.Is(err, net.ErrClosed) {
				return
			}

			continue
		}

		p := &peer{id: uuid.NewString(), conn: conn}

		b.peersMu.Lock()
		b.peers[p.id] = p
		b.peersMu.Unlock()

		b.log.Info("accepted peer", zap.String("peer", p.id), zap.Stringer("remote", conn.RemoteAddr()))

		b.readers.Go(func() { b.readLoop(p) })
	}
}

func (b *Broker) readLoop(p *peer) {
	log := b.log.With(zap.String("peer", p.id))

	defer b.removePeer(p)

	conn := NewConn(p.conn, b.config.MaxFrameSize)

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, ErrInvalidLength) || errors.Is(err, ErrUnknownKind) {
				log.Warn("malformed frame, disconnecting peer", zap.Error(err))
			} else if b.running.Load() {
				log.Debug("peer connection closed", zap.Error(err))
			}
			return
		}

		if b.handler != nil {
			b.handler(p.id, msg)
		}

		if _, ok := msg.(ShutdownMessage); ok {
			log.Info("received shutdown from peer")
			b.running.Store(false)
			b.stop()
			return
		}
	}
}

func (b *Broker) dispatchLoop() {
	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopLoops:
			return
		case <-b.notify:
		case <-ticker.C:
		}

		for _, msg := range b.drain() {
			b.broadcast(msg)
		}
	}
}

func (b *Broker) drain() []Message {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()

	msgs := b.queue
	b.queue = nil

	return msgs
}

func (b *Broker) broadcast(msg Message) {
	frame, err := NewFrame(msg, time.Now())
	if err != nil {
		b.log.Warn("dropping message", zap.Stringer("kind", msg.Kind()), zap.Error(err))
		return
	}

	// serialize once for every peer
	data := frame.Encode()

	b.peersMu.Lock()
	peers := make([]*peer, 0, len(b.peers))
	for _, p := range b.peers {
		peers = append(peers, p)
	}
	b.peersMu.Unlock()

	for _, p := range peers {
		if err := p.conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout)); err == nil {
			_, err = p.conn.Write(data)
		}

		if err != nil {
			b.log.Debug("error writing to peer, removing", zap.String("peer", p.id), zap.Error(err))
			b.removePeer(p)
		}
	}
}

func (b *Broker) removePeer(p *peer) {
	b.peersMu.Lock()
	_, ok := b.peers[p.id]
	delete(b.peers, p.id)
	b.peersMu.Unlock()

	if ok {
		p.conn.Close()
	}
}

// MARK: - Helpers

func wait(ctx context.Context, wg *conc.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
