package events

const (
	StageStarted   = "start"
	StageCompleted = "done"
	StageFailed    = "error"
)

// RefreshEvent reports one stage of a refresh cycle. Message carries the
// user-facing error text on StageFailed.
type RefreshEvent struct {
	Stage   string
	Message string
}

type Bus struct {
	Refreshes chan RefreshEvent
}

func NewBus() *Bus {
	return &Bus{
		Refreshes: make(chan RefreshEvent, 10),
	}
}

// Publish sends without blocking; an event nobody is draining is dropped.
func (b *Bus) Publish(ev RefreshEvent) {
	select {
	case b.Refreshes <- ev:
	default:
	}
}
