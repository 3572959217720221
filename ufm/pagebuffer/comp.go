// Package pagebuffer implements the single-page cache in front of the UFM.
package pagebuffer

import (
	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
	"github.com/efbutils/ufmsim/ufm"
)

// Hook positions of the page buffer. The item is the page index.
var (
	HookPosHit      = &sim.HookPos{Name: "Hit"}
	HookPosMiss     = &sim.HookPos{Name: "Miss"}
	HookPosFillDone = &sim.HookPos{Name: "FillDone"}
	HookPosFlush    = &sim.HookPos{Name: "Flush"}
)

// Comp is a one-entry, 16-byte page cache. Reads are registered: the result
// of a request is visible in the cycle after it.
type Comp struct {
	*sim.ComponentBase

	state *state.Reg[State]
}

// Register adds the registers of the page buffer to a state manager.
func (c *Comp) Register(m *state.Manager) error {
	return m.Register(c.Name(), c.state)
}

// State returns the committed register content.
func (c *Comp) State() State {
	return c.state.Get()
}

// FillRequest returns the fill strobe of the current cycle.
func (c *Comp) FillRequest() ufm.FillRequest {
	s := c.state.Get()

	return ufm.FillRequest{
		Stb:  s.FillStb,
		Page: s.CurPage,
	}
}

// Result returns the answer to the request of the previous cycle.
func (c *Comp) Result() ufm.ReadResult {
	s := c.state.Get()

	return ufm.ReadResult{
		Data:  s.Buf[s.RdPtr],
		Valid: s.ReadEnDelayed && s.HitDelayed,
	}
}

// Step computes the state of the next cycle.
func (c *Comp) Step(req ufm.ReadRequest, fill ufm.FillData) {
	cur := c.state.Get()
	next := c.state.Next()

	page := protocol.PageOf(req.Addr)
	hit := cur.FSM == StateValid && page == cur.CurPage && !req.Flush

	next.RdPtr = protocol.OffsetOf(req.Addr)
	next.ReadEnDelayed = req.ReadEn
	next.HitDelayed = req.ReadEn && hit
	next.FillStb = false

	switch cur.FSM {
	case StateInit:
		if req.ReadEn {
			c.miss(next, page)
		}
	case StateFill:
		if fill.Ack {
			next.Buf[cur.WrPtr] = fill.Data
			next.WrPtr = cur.WrPtr + 1

			if cur.WrPtr == protocol.PageSize-1 {
				next.WrPtr = 0
				next.FSM = StateValid
				c.notify(HookPosFillDone, cur.CurPage)
			}
		}
	case StateValid:
		switch {
		case req.Flush:
			next.FSM = StateInit
			c.notify(HookPosFlush, cur.CurPage)
		case !req.ReadEn:
		case hit:
			c.notify(HookPosHit, page)
		default:
			c.miss(next, page)
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

func (c *Comp) miss(next *State, page uint16) {
	next.CurPage = page
	next.FillStb = true
	next.WrPtr = 0
	next.FSM = StateFill

	c.notify(HookPosMiss, page)
}

func (c *Comp) notify(pos *sim.HookPos, page uint16) {
	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   page,
	})
}
