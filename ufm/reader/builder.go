package reader

import (
	"fmt"

	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
	"github.com/efbutils/ufmsim/ufm/pagebuffer"
	"github.com/efbutils/ufmsim/ufm/sequencer"
	"github.com/efbutils/ufmsim/ufm/streamer"
	"github.com/efbutils/ufmsim/wishbone"
)

// Builder creates readers.
type Builder struct {
	engine sim.Engine
	bus    wishbone.Slave
	spec   Spec
}

// MakeBuilder returns a Builder with the default Spec.
func MakeBuilder() Builder {
	return Builder{spec: defaults()}
}

// WithEngine sets the engine that ticks the reader.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithBus sets the slave at the other end of the register bus.
func (b Builder) WithBus(bus wishbone.Slave) Builder {
	b.bus = bus
	return b
}

// WithSpec replaces the whole Spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithFreq sets the bus clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.spec.Freq = freq
	return b
}

// WithAckTimeout sets the number of cycles to wait for an acknowledge.
func (b Builder) WithAckTimeout(cycles uint64) Builder {
	b.spec.AckTimeout = cycles
	return b
}

// WithQueueSize sets the maximum number of outstanding requests.
func (b Builder) WithQueueSize(n int) Builder {
	b.spec.QueueSize = n
	return b
}

// WithSpace sets the flash region to read.
func (b Builder) WithSpace(space protocol.Space) Builder {
	b.spec.Space = space
	return b
}

// Build creates a reader and the stack behind it. Sub-components are named
// after the reader.
func (b Builder) Build(name string) (*Comp, error) {
	if b.engine == nil {
		return nil, fmt.Errorf("%w: engine is not set", ErrInvalidSpec)
	}

	if b.bus == nil {
		return nil, fmt.Errorf("%w: bus is not set", ErrInvalidSpec)
	}

	if err := b.spec.validate(); err != nil {
		return nil, err
	}

	st, err := streamer.MakeBuilder().
		WithSpace(b.spec.Space).
		Build(name + ".Streamer")
	if err != nil {
		return nil, err
	}

	c := &Comp{
		Spec: b.spec,
		Seq: sequencer.MakeBuilder().
			WithAckTimeout(b.spec.AckTimeout).
			Build(name + ".Sequencer"),
		Streamer: st,
		Pages:    pagebuffer.MakeBuilder().Build(name + ".PageBuffer"),
		bus:      b.bus,
		regs:     state.NewManager(),
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.spec.Freq, c)

	for _, r := range []interface {
		Register(m *state.Manager) error
	}{c.Seq, c.Streamer, c.Pages} {
		if err := r.Register(c.regs); err != nil {
			return nil, err
		}
	}

	c.Pages.AcceptHook(sim.HookFunc(c.countCache))
	c.Streamer.AcceptHook(sim.HookFunc(c.countSessions))

	return c, nil
}
