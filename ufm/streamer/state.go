package streamer

import "errors"

// ErrUnsupportedSpace is returned when a streamer is configured for a flash
// region it cannot read.
var ErrUnsupportedSpace = errors.New("unsupported flash space")

// StateID enumerates the states of the session engine.
type StateID uint8

// The states of the session engine.
const (
	StateIdle StateID = iota
	StateEnableConfig
	StatePollStatus1
	StatePollStatus2
	StatePollStatus3
	StatePollStatus4
	StatePollStatus5
	StateSetUFMAddr
	StateReadUFM
	StateDisableConfig
	StateBypass
)

var stateNames = [...]string{
	StateIdle:          "IDLE",
	StateEnableConfig:  "ENABLE_CONFIG",
	StatePollStatus1:   "POLL_STATUS_1",
	StatePollStatus2:   "POLL_STATUS_2",
	StatePollStatus3:   "POLL_STATUS_3",
	StatePollStatus4:   "POLL_STATUS_4",
	StatePollStatus5:   "POLL_STATUS_5",
	StateSetUFMAddr:    "SET_UFM_ADDR",
	StateReadUFM:       "READ_UFM",
	StateDisableConfig: "DISABLE_CONFIG",
	StateBypass:        "BYPASS",
}

func (s StateID) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return "UNKNOWN"
}

// State is the register content of the streamer.
type State struct {
	FSM  StateID
	Prev StateID

	// Page is the page of the running session.
	Page uint16

	// Busy is the busy flag sampled by the last status poll.
	Busy bool

	// Fail is set when a poll of this session reported a failure.
	Fail bool

	// Polls counts the status polls of the running session.
	Polls int

	Pending     bool
	PendingPage uint16
}

// JustEntered tells if the current state differs from the one of the
// previous cycle.
func (s State) JustEntered() bool {
	return s.Prev != s.FSM
}

// SessionInfo is the item of the session hooks.
type SessionInfo struct {
	Page  uint16
	Polls int
	Fail  bool
}
