// Package ufm defines the signals exchanged by the stages of the UFM reader:
// the page buffer, the streamer and the sequencer.
package ufm

import (
	"fmt"

	"github.com/efbutils/ufmsim/sim"
)

// FillRequest asks the streamer to fetch one page. Stb is high for a single
// cycle per request.
type FillRequest struct {
	Stb  bool
	Page uint16
}

// FillData carries one fetched byte into the page buffer.
type FillData struct {
	Ack  bool
	Data uint8
}

// ReadRequest is the random-access port of the page buffer.
type ReadRequest struct {
	Addr   uint16
	ReadEn bool
	Flush  bool
}

// ReadResult answers the ReadRequest of the previous cycle.
type ReadResult struct {
	Data  uint8
	Valid bool
}

// HookPosStateChange fires when a state machine of the reader moves to a
// different state. The item is a Transition.
var HookPosStateChange = &sim.HookPos{Name: "StateChange"}

// Transition describes one state change.
type Transition struct {
	From string
	To   string
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s", t.From, t.To)
}
