package sim

import (
	"log"
	"sync"
	"sync/atomic"
)

// Hook positions of the engine. The item is the event being handled.
var (
	HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &HookPos{Name: "AfterEvent"}
)

// A SerialEngine handles one event at a time on the goroutine that calls Run.
// Pause, Continue and CurrentTime may be called from other goroutines.
type SerialEngine struct {
	*HookableBase

	mu    sync.Mutex
	now   VTimeInCycle
	queue *eventQueue

	// gate is held while an event is handled and while the engine is paused.
	gate   sync.Mutex
	paused atomic.Bool

	running sync.Mutex

	endHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine at cycle 0.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		HookableBase: NewHookableBase(),
		queue:        newEventQueue(),
	}
}

// Schedule adds an event. Scheduling for a cycle that has passed panics.
func (e *SerialEngine) Schedule(evt Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if evt.Time() < e.now {
		log.Panicf("event %T scheduled for cycle %d, engine is at cycle %d",
			evt, evt.Time(), e.now)
	}

	e.queue.push(evt)
}

// Run handles the scheduled events in cycle order. It returns when no event
// is left, or with the first handler error.
func (e *SerialEngine) Run() error {
	e.running.Lock()
	defer e.running.Unlock()

	for {
		evt, ok := e.next()
		if !ok {
			return nil
		}

		if err := e.dispatch(evt); err != nil {
			return err
		}
	}
}

func (e *SerialEngine) next() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.queue.nextCycle()
	if !ok {
		return nil, false
	}

	e.now = t

	return e.queue.pop(), true
}

func (e *SerialEngine) dispatch(evt Event) error {
	e.gate.Lock()
	defer e.gate.Unlock()

	ctx := HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return err
}

// Pause stops the engine before its next event. It waits for the event being
// handled to finish.
func (e *SerialEngine) Pause() {
	if e.paused.CompareAndSwap(false, true) {
		e.gate.Lock()
	}
}

// Continue resumes a paused engine.
func (e *SerialEngine) Continue() {
	if e.paused.CompareAndSwap(true, false) {
		e.gate.Unlock()
	}
}

// CurrentTime returns the cycle of the event being handled, or of the last
// one handled.
func (e *SerialEngine) CurrentTime() VTimeInCycle {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.now
}

// Pending returns the number of events waiting to be handled.
func (e *SerialEngine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.queue.len()
}

// RegisterSimulationEndHandler adds a handler that Finished calls.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.endHandlers = append(e.endHandlers, handler)
}

// Finished calls every simulation end handler with the current cycle.
func (e *SerialEngine) Finished() {
	now := e.CurrentTime()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
