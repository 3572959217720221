package sequencer

import (
	"github.com/efbutils/ufmsim/protocol"
)

// StateID enumerates the states of the frame engine.
type StateID uint8

// The states of the frame engine. The *1 states hold a bus request until it
// is acknowledged, the *2 states release the bus for one cycle.
const (
	StateIdle StateID = iota
	StateEnable1
	StateEnable2
	StateCmd1
	StateCmd2
	StateOperand1
	StateOperand2
	StateData1
	StateData2
	StateDisable1
	StateDisable2
)

var stateNames = [...]string{
	StateIdle:     "IDLE",
	StateEnable1:  "ENABLE_1",
	StateEnable2:  "ENABLE_2",
	StateCmd1:     "CMD_1",
	StateCmd2:     "CMD_2",
	StateOperand1: "OPERAND_1",
	StateOperand2: "OPERAND_2",
	StateData1:    "DATA_1",
	StateData2:    "DATA_2",
	StateDisable1: "DISABLE_1",
	StateDisable2: "DISABLE_2",
}

func (s StateID) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return "UNKNOWN"
}

// State is the register content of the sequencer.
type State struct {
	FSM     StateID
	Frame   protocol.Frame
	CurOp   uint8
	CurData uint8
	RdData  uint8
	Wait    uint64
}

// Control is the request side of the sequencer.
type Control struct {
	Req   bool
	Frame protocol.Frame
}

// Status is what the sequencer reports to its user in the current cycle.
type Status struct {
	// Done is high for the single cycle after the disable write of a frame
	// is acknowledged.
	Done bool

	// ByteReady is high for one cycle after each read byte is latched.
	ByteReady bool

	// Data is the last byte read from the bus.
	Data uint8

	// Idle tells if the sequencer can accept a frame.
	Idle bool
}
