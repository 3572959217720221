package sequencer

import (
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
)

// Builder creates sequencers.
type Builder struct {
	spec Spec
}

// MakeBuilder returns a Builder with the default Spec.
func MakeBuilder() Builder {
	return Builder{spec: defaults()}
}

// WithSpec replaces the whole Spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithAckTimeout sets the number of cycles to wait for an acknowledge.
func (b Builder) WithAckTimeout(cycles uint64) Builder {
	b.spec.AckTimeout = cycles
	return b
}

// Build creates a sequencer in the IDLE state.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		Spec:          b.spec,
		state:         state.NewReg(State{FSM: StateIdle}),
	}

	return c
}
