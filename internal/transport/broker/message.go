package broker

// Kind tags the payload of a frame.
type Kind int32

const (
	KindTask Kind = iota
	KindResult
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindTask:
		return "TASK"
	case KindResult:
		return "RESULT"
	case KindShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// Message is one of TaskMessage, ResultMessage or ShutdownMessage.
type Message interface {
	Kind() Kind
	Payload() []byte

	message()
}

// TaskMessage carries an encoded task to the render peers.
type TaskMessage struct {
	Data []byte
}

// ResultMessage carries an encoded result back from a render peer.
type ResultMessage struct {
	Data []byte
}

// ShutdownMessage asks the receiving side to stop. Frames must not be
// empty, so the reason travels as the payload.
type ShutdownMessage struct {
	Reason string
}

func (TaskMessage) Kind() Kind     { return KindTask }
func (ResultMessage) Kind() Kind   { return KindResult }
func (ShutdownMessage) Kind() Kind { return KindShutdown }

func (m TaskMessage) Payload() []byte   { return m.Data }
func (m ResultMessage) Payload() []byte { return m.Data }

func (m ShutdownMessage) Payload() []byte {
	if m.Reason == "" {
		return []byte("shutdown")
	}

	return []byte(m.Reason)
}

func (TaskMessage) message()     {}
func (ResultMessage) message()   {}
func (ShutdownMessage) message() {}
