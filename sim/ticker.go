package sim

import (
	"sync"
)

// TickEvent asks a component to advance by one cycle.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a tick for the handler at the given cycle.
func MakeTickEvent(handler Handler, time VTimeInCycle) TickEvent {
	return TickEvent{EventBase: *NewEventBase(time, handler)}
}

// A Ticker advances its state by one cycle. Tick returns false when the
// ticker has nothing to do until something wakes it.
type Ticker interface {
	Tick() bool
}

// TickScheduler schedules at most one pending tick for a handler.
type TickScheduler struct {
	lock    sync.Mutex
	handler Handler
	Freq    Freq
	Engine  Engine

	scheduled    bool
	nextTickTime VTimeInCycle
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		Engine:  engine,
		Freq:    freq,
	}
}

// TickNow schedules a tick in the current cycle.
func (t *TickScheduler) TickNow() {
	t.schedule(t.CurrentTime())
}

// TickLater schedules a tick in the next cycle.
func (t *TickScheduler) TickLater() {
	t.schedule(t.Freq.NextTick(t.CurrentTime()))
}

func (t *TickScheduler) schedule(time VTimeInCycle) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.scheduled && t.nextTickTime >= time {
		return
	}

	t.scheduled = true
	t.nextTickTime = time
	t.Engine.Schedule(MakeTickEvent(t.handler, time))
}

func (t *TickScheduler) consume() {
	t.lock.Lock()
	t.scheduled = false
	t.lock.Unlock()
}

// CurrentTime returns the cycle of the engine.
func (t *TickScheduler) CurrentTime() VTimeInCycle {
	return t.Engine.CurrentTime()
}

// TickingComponent is a component that is driven by a Ticker. It keeps
// ticking every cycle while the ticker reports progress, and sleeps
// otherwise.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{
		ComponentBase: NewComponentBase(name),
		ticker:        ticker,
	}
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)

	return tc
}

// Handle runs one tick. If the ticker has an Err method, its error is
// returned so that the engine stops.
func (c *TickingComponent) Handle(_ Event) error {
	c.consume()

	if c.ticker.Tick() {
		c.TickLater()
	}

	if failer, ok := c.ticker.(interface{ Err() error }); ok {
		return failer.Err()
	}

	return nil
}
