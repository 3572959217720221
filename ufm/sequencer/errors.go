package sequencer

import (
	"errors"
	"fmt"

	"github.com/efbutils/ufmsim/protocol"
)

// ErrAckTimeout is matched by every AckTimeoutError.
var ErrAckTimeout = errors.New("bus acknowledge timeout")

// AckTimeoutError reports a bus request that was not acknowledged in time.
type AckTimeoutError struct {
	Sequencer string
	State     StateID
	Opcode    protocol.Opcode
	Addr      protocol.RegAddr
	Cycles    uint64
}

func (e *AckTimeoutError) Error() string {
	return fmt.Sprintf(
		"%s: no acknowledge from %s after %d cycles in %s of %s",
		e.Sequencer, e.Addr, e.Cycles, e.State, e.Opcode)
}

// Unwrap lets errors.Is match ErrAckTimeout.
func (e *AckTimeoutError) Unwrap() error {
	return ErrAckTimeout
}
