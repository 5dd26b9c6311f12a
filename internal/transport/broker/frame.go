package broker

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultMaxFrameSize caps the payload a peer may announce.
const DefaultMaxFrameSize = 10 * 1024 * 1024

var (
	ErrInvalidLength = errors.New("invalid frame length")
	ErrUnknownKind   = errors.New("unknown message kind")
	ErrEmptyPayload  = errors.New("message payload is empty")
)

// Frame is the wire unit of the broker, big endian:
//
//	int32 length | int32 kind | payload (length bytes) | int64 timestamp
//
// Length counts payload bytes only and must be positive.
type Frame struct {
	Kind      Kind
	Payload   []byte
	Timestamp int64
}

// headerSize is length and kind, trailerSize the timestamp.
const (
	headerSize  = 8
	trailerSize = 8
)

// Encode serializes the frame.
func (f Frame) Encode() []byte {
	buf := make([]byte, headerSize+len(f.Payload)+trailerSize)

	binary.BigEndian.PutUint32(buf[0:4], uint32(len(f.Payload)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(f.Kind))
	copy(buf[headerSize:], f.Payload)
	binary.BigEndian.PutUint64(buf[headerSize+len(f.Payload):], uint64(f.Timestamp))

	return buf
}

// Message converts the frame into its typed message.
func (f Frame) Message() (Message, error) {
	switch f.Kind {
	case KindTask:
		return TaskMessage{Data: f.Payload}, nil
	case KindResult:
		return ResultMessage{Data: f.Payload}, nil
	case KindShutdown:
		return ShutdownMessage{Reason: string(f.Payload)}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, f.Kind)
	}
}

// NewFrame wraps msg into a frame stamped with ts in unix milliseconds.
func NewFrame(msg Message, ts time.Time) (Frame, error) {
	payload := msg.Payload()
	if len(payload) == 0 {
		return Frame{}, ErrEmptyPayload
	}

	return Frame{
		Kind:      msg.Kind(),
		Payload:   payload,
		Timestamp: ts.UnixMilli(),
	}, nil
}

// ReadFrame reads one frame. A length that is not positive or exceeds
// maxSize yields ErrInvalidLength before the payload is read.
func ReadFrame(r io.Reader, maxSize int) (Frame, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}

	length := int32(binary.BigEndian.Uint32(header[0:4]))
	if length <= 0 || int64(length) > int64(maxSize) {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	kind := Kind(binary.BigEndian.Uint32(header[4:8]))

	body := make([]byte, int(length)+trailerSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, err
	}

	return Frame{
		Kind:      kind,
		Payload:   body[:length],
		Timestamp: int64(binary.BigEndian.Uint64(body[length:])),
	}, nil
}

// Conn reads and writes frames over a stream. It is the client side of a
// broker connection.
type Conn struct {
	rw      io.ReadWriteCloser
	reader  *bufio.Reader
	maxSize int
}

func NewConn(rw io.ReadWriteCloser, maxSize int) *Conn {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	return &Conn{rw: rw, reader: bufio.NewReader(rw), maxSize: maxSize}
}

func (c *Conn) ReadMessage() (Message, error) {
	frame, err := ReadFrame(c.reader, c.maxSize)
	if err != nil {
		return nil, err
	}

	return frame.Message()
}

func (c *Conn) WriteMessage(msg Message) error {
	frame, err := NewFrame(msg, time.Now())
	if err != nil {
		return err
	}

	_, err = c.rw.Write(frame.Encode())

	return err
}

func (c *Conn) Close() error {
	return c.rw.Close()
}
