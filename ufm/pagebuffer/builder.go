package pagebuffer

import (
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
)

// Builder creates page buffers.
type Builder struct{}

// MakeBuilder returns a Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// Build creates an empty page buffer.
func (b Builder) Build(name string) *Comp {
	return &Comp{
		ComponentBase: sim.NewComponentBase(name),
		state:         state.NewReg(State{FSM: StateInit}),
	}
}
