package channel_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/internal/transport/channel"
)

func freeAddress(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	return channel.Endpoint("127.0.0.1", port)
}

func createChannel(t *testing.T, pattern channel.Pattern, address string) *channel.Channel {
	c := channel.New(channel.Params{
		Spec:   channel.Spec{Pattern: pattern, Address: address},
		Config: channel.DefaultConfig(),
		Log:    zap.NewNop(),
	})

	t.Cleanup(func() { c.Close() })

	return c
}

func createStream(t *testing.T) (push, pull *channel.Channel) {
	address := freeAddress(t)

	pull = createChannel(t, channel.StreamPull, address)
	require.NoError(t, pull.Bind())

	push = createChannel(t, channel.StreamPush, address)
	require.NoError(t, push.Connect())

	return push, pull
}

func receive(t *testing.T, c *channel.Channel, timeout time.Duration) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	data, err := c.Receive(ctx, channel.Blocking)
	require.NoError(t, err)

	return data
}

func TestChannel_PushPullPreservesOrder(t *testing.T) {
	push, pull := createStream(t)

	for i := 0; i < 20; i++ {
		err := push.Send(context.Background(), []byte(fmt.Sprintf("%d,0,64", i)), channel.Blocking)
		require.NoError(t, err)
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, fmt.Sprintf("%d,0,64", i), string(receive(t, pull, 2*time.Second)))
	}
}

func TestChannel_NonBlockingReceiveOnEmpty(t *testing.T) {
	_, pull := createStream(t)

	data, err := pull.Receive(context.Background(), channel.NonBlocking)

	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestChannel_NonBlockingReceiveEventuallyDelivers(t *testing.T) {
	push, pull := createStream(t)

	require.NoError(t, push.Send(context.Background(), []byte("hello"), channel.NonBlocking))

	var data []byte
	assert.Eventually(t, func() bool {
		var err error
		data, err = pull.Receive(context.Background(), channel.NonBlocking)
		return err == nil && data != nil
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, "hello", string(data))
}

func TestChannel_TimedOutReceiveKeepsMessage(t *testing.T) {
	push, pull := createStream(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	data, err := pull.Receive(ctx, channel.Blocking)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, data)

	require.NoError(t, push.Send(context.Background(), []byte("late"), channel.Blocking))

	assert.Equal(t, "late", string(receive(t, pull, 2*time.Second)))
}

func TestChannel_RequestReply(t *testing.T) {
	address := freeAddress(t)

	rep := createChannel(t, channel.SyncReply, address)
	require.NoError(t, rep.Bind())

	req := createChannel(t, channel.SyncRequest, address)
	require.NoError(t, req.Connect())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		data, err := rep.Receive(ctx, channel.Blocking)
		if err != nil {
			return
		}

		rep.Send(ctx, append([]byte("true:"), data...), channel.Blocking)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := req.Request(ctx, []byte("1,2,42,overworld"))
	require.NoError(t, err)

	assert.Equal(t, "true:1,2,42,overworld", string(reply))
	assert.False(t, req.Broken())
}

func TestChannel_RequestTimeoutMarksBroken(t *testing.T) {
	address := freeAddress(t)

	// a reply socket that never answers
	rep := createChannel(t, channel.SyncReply, address)
	require.NoError(t, rep.Bind())

	req := createChannel(t, channel.SyncRequest, address)
	require.NoError(t, req.Connect())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := req.Request(ctx, []byte("1,2,42,overworld"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, req.Broken())
}

func TestChannel_PatternChecks(t *testing.T) {
	push, pull := createStream(t)

	_, err := push.Receive(context.Background(), channel.NonBlocking)
	assert.ErrorIs(t, err, channel.ErrWrongPattern)

	err = pull.Send(context.Background(), []byte("x"), channel.NonBlocking)
	assert.ErrorIs(t, err, channel.ErrWrongPattern)

	_, err = push.Request(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, channel.ErrWrongPattern)
}

func TestChannel_NotConnected(t *testing.T) {
	c := createChannel(t, channel.StreamPush, freeAddress(t))

	assert.False(t, c.Connected())

	err := c.Send(context.Background(), []byte("x"), channel.NonBlocking)
	assert.ErrorIs(t, err, channel.ErrNotConnected)
}

func TestChannel_ConnectAndBindAreExclusive(t *testing.T) {
	_, pull := createStream(t)

	assert.ErrorIs(t, pull.Bind(), channel.ErrAlreadyConnected)
	assert.ErrorIs(t, pull.Connect(), channel.ErrAlreadyConnected)
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	_, pull := createStream(t)

	assert.NoError(t, pull.Close())
	assert.NoError(t, pull.Close())

	assert.False(t, pull.Connected())

	_, err := pull.Receive(context.Background(), channel.Blocking)
	assert.ErrorIs(t, err, channel.ErrClosed)

	assert.ErrorIs(t, pull.Bind(), channel.ErrClosed)
}

func TestChannel_CloseUnblocksReceive(t *testing.T) {
	_, pull := createStream(t)

	errs := make(chan error, 1)
	go func() {
		_, err := pull.Receive(context.Background(), channel.Blocking)
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	pull.Close()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, channel.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("receive did not return after close")
	}
}
