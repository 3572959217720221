package sim

// TimeTeller reports the current cycle.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler accepts events for the current or a later cycle.
type EventScheduler interface {
	TimeTeller
	Schedule(e Event)
}

// A SimulationEndHandler runs once the simulation is over.
type SimulationEndHandler interface {
	Handle(now VTimeInCycle)
}

// An Engine drives the simulation by handling events in cycle order.
type Engine interface {
	Hookable
	EventScheduler

	// Run handles events until none is left or a handler fails.
	Run() error

	// Pause blocks the engine before its next event.
	Pause()

	// Continue releases a paused engine.
	Continue()

	// RegisterSimulationEndHandler adds a handler that Finished calls.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished calls the simulation end handlers.
	Finished()
}
