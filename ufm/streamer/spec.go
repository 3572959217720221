package streamer

import (
	"fmt"

	"github.com/efbutils/ufmsim/protocol"
)

// Spec holds the configuration of a streamer.
type Spec struct {
	// Space is the flash region the pages are read from.
	Space protocol.Space
}

func defaults() Spec {
	return Spec{
		Space: protocol.SpaceUFM,
	}
}

func (s Spec) validate() error {
	if s.Space != protocol.SpaceUFM {
		return fmt.Errorf("streamer: %w: pages can only be read from the %s space, got %s",
			ErrUnsupportedSpace, protocol.SpaceUFM, s.Space)
	}

	return nil
}
