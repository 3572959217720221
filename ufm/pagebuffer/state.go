package pagebuffer

import "github.com/efbutils/ufmsim/protocol"

// StateID enumerates the states of the page buffer.
type StateID uint8

// The states of the page buffer.
const (
	StateInit StateID = iota
	StateFill
	StateValid
)

func (s StateID) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateFill:
		return "FILL"
	case StateValid:
		return "VALID"
	default:
		return "UNKNOWN"
	}
}

// State is the register content of the page buffer.
type State struct {
	FSM     StateID
	CurPage uint16
	Buf     [protocol.PageSize]byte
	WrPtr   uint8
	RdPtr   uint8

	// ReadEnDelayed and HitDelayed describe the request of the previous
	// cycle.
	ReadEnDelayed bool
	HitDelayed    bool

	FillStb bool
}
