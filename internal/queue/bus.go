package queue

// MessageKind names one of the record kinds spec.md §4.4 "Message bus"
// enumerates.
type MessageKind int

const (
	MsgStdout MessageKind = iota
	MsgStderr
	MsgRunning
	MsgBuildPlan
	MsgFinish
	MsgNeedsToken
	MsgReleaseToken
)

// Message is a single record pushed onto the scheduler's MPSC channel.
// Workers never write to the user terminal directly; the main thread is
// the sole consumer (spec.md §4.4).
type Message struct {
	Kind MessageKind

	UnitName string // set for all per-unit message kinds
	Worker   int    // worker slot index, for status rendering

	Text    string // Stdout/Stderr line, or Running's command string
	Plan    []string // MsgBuildPlan: unit names in schedule order
	Err     error    // MsgFinish: nil on success
}

// Bus is the scheduler's single MPSC channel. Send is safe for concurrent
// use by every worker; a single consumer goroutine (in cmd/ferrocore, the
// driver's status renderer or its drain loop) reads Recv.
type Bus struct {
	ch chan Message
}

// NewBus creates a bus with the given buffer size. A worker blocks on Send
// when the buffer is full, which is an explicit, documented suspension
// point (spec.md §4.4 "Suspension points").
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Message, buffer)}
}

func (b *Bus) Send(m Message)        { b.ch <- m }
func (b *Bus) Recv() <-chan Message  { return b.ch }
func (b *Bus) Close()                { close(b.ch) }
