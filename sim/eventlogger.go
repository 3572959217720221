package sim

import (
	"log"
)

// LogHookBase gives a hook a logger.
type LogHookBase struct {
	*log.Logger
}

// EventLogger logs one line per handled event: the cycle, the event kind
// and the name of the handler.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns an EventLogger writing to logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{LogHookBase: LogHookBase{Logger: logger}}
}

// Func logs the event before it is handled.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	kind := "event"
	if _, isTick := evt.(TickEvent); isTick {
		kind = "tick"
	}

	name := "-"
	if named, ok := evt.Handler().(Named); ok {
		name = named.Name()
	}

	h.Printf("%d, %s, %s", evt.Time(), kind, name)
}
