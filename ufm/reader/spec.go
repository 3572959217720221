package reader

import (
	"errors"
	"fmt"

	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
)

// Errors returned by the reader.
var (
	ErrQueueFull         = errors.New("request queue is full")
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrInvalidSpec       = errors.New("invalid reader spec")
)

// Spec holds the configuration of a reader.
type Spec struct {
	// Freq is the frequency of the register bus clock.
	Freq sim.Freq

	// AckTimeout is the number of cycles the sequencer waits for an
	// acknowledge before reporting a fault. Zero waits forever.
	AckTimeout uint64

	// QueueSize is the maximum number of outstanding Submit calls.
	QueueSize int

	// Space is the flash region the pages are read from.
	Space protocol.Space
}

func defaults() Spec {
	return Spec{
		Freq:      12 * sim.MHz,
		QueueSize: 64,
		Space:     protocol.SpaceUFM,
	}
}

func (s Spec) validate() error {
	if s.Freq <= 0 {
		return fmt.Errorf("%w: frequency must be positive, got %v",
			ErrInvalidSpec, float64(s.Freq))
	}

	if s.QueueSize <= 0 {
		return fmt.Errorf("%w: queue size must be positive, got %d",
			ErrInvalidSpec, s.QueueSize)
	}

	return nil
}
