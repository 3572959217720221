// Package streamer implements the session engine that drives the sequencer
// through the frames needed to fetch one page of the UFM.
package streamer

import (
	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
	"github.com/efbutils/ufmsim/ufm"
	"github.com/efbutils/ufmsim/ufm/sequencer"
)

// Hook positions of the streamer. The item of all of them is a SessionInfo.
var (
	HookPosSessionStart = &sim.HookPos{Name: "SessionStart"}
	HookPosSessionDone  = &sim.HookPos{Name: "SessionDone"}
	HookPosStatusFail   = &sim.HookPos{Name: "StatusFail"}
)

// Comp is the session engine.
type Comp struct {
	*sim.ComponentBase

	Spec Spec

	state *state.Reg[State]
}

// Register adds the registers of the streamer to a state manager.
func (c *Comp) Register(m *state.Manager) error {
	return m.Register(c.Name(), c.state)
}

// State returns the committed register content.
func (c *Comp) State() State {
	return c.state.Get()
}

// Ready tells if no session is running.
func (c *Comp) Ready() bool {
	return c.state.Get().FSM == StateIdle
}

// Control returns the request to the sequencer for the current cycle. A
// frame is requested only in the first cycle of each frame state.
func (c *Comp) Control() sequencer.Control {
	s := c.state.Get()

	var ctl sequencer.Control

	issues := true

	switch s.FSM {
	case StateEnableConfig:
		ctl.Frame = protocol.EnableConfigFrame()
	case StatePollStatus1:
		ctl.Frame = protocol.PollStatusFrame()
	case StatePollStatus2, StatePollStatus3, StatePollStatus4,
		StatePollStatus5:
		ctl.Frame = protocol.PollStatusFrame()
		issues = false
	case StateSetUFMAddr:
		ctl.Frame = protocol.SetUFMAddrFrame(c.target(s))
	case StateReadUFM:
		ctl.Frame = protocol.ReadUFMFrame()
	case StateDisableConfig:
		ctl.Frame = protocol.DisableConfigFrame()
	case StateBypass:
		ctl.Frame = protocol.BypassFrame()
	default:
		ctl.Frame = protocol.IdleFrame()
		issues = false
	}

	ctl.Req = issues && s.JustEntered()

	return ctl
}

func (c *Comp) target(s State) protocol.Target {
	return protocol.Target{Page: s.Page, Space: c.Spec.Space}
}

// Fill returns the byte forwarded to the page buffer in the current cycle.
func (c *Comp) Fill(seq sequencer.Status) ufm.FillData {
	s := c.state.Get()

	return ufm.FillData{
		Ack:  s.FSM == StateReadUFM && seq.ByteReady,
		Data: seq.Data,
	}
}

// Step computes the state of the next cycle.
func (c *Comp) Step(req ufm.FillRequest, seq sequencer.Status) {
	cur := c.state.Get()
	next := c.state.Next()

	next.Prev = cur.FSM

	pending, pendingPage := cur.Pending, cur.PendingPage
	if req.Stb && cur.FSM != StateIdle {
		pending, pendingPage = true, req.Page
	}

	next.Pending, next.PendingPage = pending, pendingPage

	switch cur.FSM {
	case StateIdle:
		if req.Stb {
			c.startSession(next, req.Page)
		}
	case StateEnableConfig:
		if seq.Done {
			next.FSM = StatePollStatus1
		}
	case StatePollStatus1:
		if cur.JustEntered() {
			next.Polls = cur.Polls + 1
		}

		if seq.ByteReady {
			next.FSM = StatePollStatus2
		}
	case StatePollStatus2:
		if seq.ByteReady {
			next.FSM = StatePollStatus3
		}
	case StatePollStatus3:
		if seq.ByteReady {
			c.sampleStatus(cur, next, protocol.StatusByte(seq.Data))
			next.FSM = StatePollStatus4
		}
	case StatePollStatus4:
		if seq.ByteReady {
			next.FSM = StatePollStatus5
		}
	case StatePollStatus5:
		if seq.Done {
			next.FSM = StateSetUFMAddr
			if cur.Busy {
				next.FSM = StatePollStatus1
			}
		}
	case StateSetUFMAddr:
		if seq.Done {
			next.FSM = StateReadUFM
		}
	case StateReadUFM:
		if seq.Done {
			next.FSM = StateDisableConfig
		}
	case StateDisableConfig:
		if seq.Done {
			next.FSM = StateBypass
		}
	case StateBypass:
		if seq.Done {
			c.finishSession(cur)

			next.FSM = StateIdle
			if pending {
				next.Pending = false
				c.startSession(next, pendingPage)
			}
		}
	}

	if next.FSM != cur.FSM {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    ufm.HookPosStateChange,
			Item: ufm.Transition{
				From: cur.FSM.String(),
				To:   next.FSM.String(),
			},
		})
	}
}

func (c *Comp) startSession(next *State, page uint16) {
	next.FSM = StateEnableConfig
	next.Page = page
	next.Polls = 0
	next.Busy = false
	next.Fail = false

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosSessionStart,
		Item:   SessionInfo{Page: page},
	})
}

func (c *Comp) sampleStatus(cur State, next *State, status protocol.StatusByte) {
	next.Busy = status.Busy()

	if status.Fail() && !cur.Fail {
		next.Fail = true
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosStatusFail,
			Item:   SessionInfo{Page: cur.Page, Polls: cur.Polls, Fail: true},
			Detail: status,
		})
	}
}

func (c *Comp) finishSession(cur State) {
	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosSessionDone,
		Item: SessionInfo{
			Page:  cur.Page,
			Polls: cur.Polls,
			Fail:  cur.Fail,
		},
	})
}
