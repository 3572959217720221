package streamer

import (
	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
)

// Builder creates streamers.
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

// WithSpace sets the flash region to read.
func (b Builder) WithSpace(space protocol.Space) Builder {
	b.spec.Space = space
	return b
}

// Build creates a streamer in the IDLE state.
func (b Builder) Build(name string) (*Comp, error) {
	if err := b.spec.validate(); err != nil {
		return nil, err
	}

	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		Spec:          b.spec,
		state:         state.NewReg(State{}),
	}

	return c, nil
}
