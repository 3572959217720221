package sim

// An Event is something that happens at the start of a cycle.
type Event interface {
	// Time returns the cycle the event happens in.
	Time() VTimeInCycle

	// Handler returns the handler that processes the event.
	Handler() Handler
}

// EventBase implements the getters of Event.
type EventBase struct {
	ID      string
	time    VTimeInCycle
	handler Handler
}

// NewEventBase creates an EventBase at the given cycle.
func NewEventBase(t VTimeInCycle, handler Handler) *EventBase {
	return &EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    t,
		handler: handler,
	}
}

// Time returns the cycle of the event.
func (e EventBase) Time() VTimeInCycle {
	return e.time
}

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// A Handler processes events. An event only changes the state of its own
// handler; a handler error stops the engine.
type Handler interface {
	Handle(e Event) error
}
