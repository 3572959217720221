package tracing

import (
	"log"

	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/ufm"
)

// StateLogger prints every state change of the stack.
type StateLogger struct {
	sim.LogHookBase

	timeTeller sim.TimeTeller
}

// NewStateLogger returns a StateLogger that writes into logger.
func NewStateLogger(logger *log.Logger, timeTeller sim.TimeTeller) *StateLogger {
	h := &StateLogger{timeTeller: timeTeller}
	h.Logger = logger

	return h
}

// Func logs a state change.
func (h *StateLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != ufm.HookPosStateChange {
		return
	}

	name := "?"
	if named, ok := ctx.Domain.(sim.Named); ok {
		name = named.Name()
	}

	h.Printf("%d, %s, %s", h.timeTeller.CurrentTime(), name, ctx.Item)
}
