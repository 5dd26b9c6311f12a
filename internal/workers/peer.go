package workers

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/execution/pool"
	"github.com/mindplus/offloader/internal/transport/broker"
	"github.com/mindplus/offloader/models"
)

const defaultPeerDialRetry = 250 * time.Millisecond

type PeerParams struct {
	// Address of the broker, host:port.
	Address string

	// DialRetry is the pause between connection attempts.
	DialRetry time.Duration

	MaxFrameSize int

	Log *zap.Logger
}

// RunPeer connects a render peer to the broker and renders every task it
// broadcasts, writing the results back. It returns nil when the broker
// sends a shutdown or ctx is done.
func RunPeer(ctx context.Context, params PeerParams) error {
	log := params.Log

	conn, err := dialBroker(ctx, params)
	if err != nil {
		return stopped(ctx, err)
	}

	peer := broker.NewConn(conn, params.MaxFrameSize)

	stop := context.AfterFunc(ctx, func() { peer.Close() })
	defer stop()
	defer peer.Close()

	log.Info("connected to broker", zap.String("address", params.Address))

	for {
		msg, err := peer.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		switch m := msg.(type) {
		case broker.TaskMessage:
			task, err := models.DecodeRenderTask(m.Data)
			if err != nil {
				log.Debug("dropping task", zap.ByteString("data", m.Data), zap.Error(err))
				continue
			}

			started := time.Now()
			result := pool.PlaceholderResult(task)
			result.RenderTime = time.Since(started)

			if err := peer.WriteMessage(broker.ResultMessage{Data: result.Encode()}); err != nil {
				return stopped(ctx, err)
			}

		case broker.ShutdownMessage:
			log.Info("broker shutdown", zap.String("reason", m.Reason))
			return nil

		default:
			log.Debug("ignoring message", zap.Stringer("kind", msg.Kind()))
		}
	}
}

func dialBroker(ctx context.Context, params PeerParams) (net.Conn, error) {
	retry := params.DialRetry
	if retry <= 0 {
		retry = defaultPeerDialRetry
	}

	var dialer net.Dialer

	for {
		conn, err := dialer.DialContext(ctx, "tcp", params.Address)
		if err == nil {
			return conn, nil
		}

		params.Log.Debug("broker not reachable", zap.String("address", params.Address), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry):
		}
	}
}
