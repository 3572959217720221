// Package sequencer implements the frame engine that runs one command frame
// (enable, opcode, operands, data, disable) over the register bus.
package sequencer

import (
	"fmt"

	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
	"github.com/efbutils/ufmsim/ufm"
	"github.com/efbutils/ufmsim/wishbone"
)

// Hook positions of the sequencer.
var (
	// HookPosFrameStart fires when a frame is accepted. The item is the
	// frame.
	HookPosFrameStart = &sim.HookPos{Name: "FrameStart"}

	// HookPosFrameDone fires in the cycle that done is high. The item is
	// the frame.
	HookPosFrameDone = &sim.HookPos{Name: "FrameDone"}

	// HookPosFault fires once when the sequencer latches an error. The item
	// is the error.
	HookPosFault = &sim.HookPos{Name: "Fault"}
)

// Comp is the frame engine.
type Comp struct {
	*sim.ComponentBase

	Spec Spec

	state *state.Reg[State]
	err   error
}

// Register adds the registers of the sequencer to a state manager.
func (c *Comp) Register(m *state.Manager) error {
	return m.Register(c.Name(), c.state)
}

// State returns the committed register content.
func (c *Comp) State() State {
	return c.state.Get()
}

// Err returns the fault latched by the sequencer, if any.
func (c *Comp) Err() error {
	return c.err
}

// Bus returns the lines the sequencer drives in the current cycle.
func (c *Comp) Bus() wishbone.Request {
	s := c.state.Get()

	switch s.FSM {
	case StateEnable1:
		return write(protocol.RegEnable, protocol.EnableValue)
	case StateEnable2:
		return hold(protocol.RegEnable, protocol.EnableValue)
	case StateCmd1:
		return write(protocol.RegCmd, uint8(s.Frame.Opcode))
	case StateCmd2:
		return hold(protocol.RegCmd, uint8(s.Frame.Opcode))
	case StateOperand1:
		return write(protocol.RegCmd, s.Frame.Operands.Byte(int(s.CurOp)))
	case StateOperand2:
		return hold(protocol.RegCmd, s.Frame.Operands.Byte(int(s.CurOp)))
	case StateData1:
		if s.Frame.Dir == protocol.DirRead {
			return read(protocol.RegReadData)
		}

		return write(protocol.RegCmd, s.Frame.Payload[s.CurData])
	case StateData2:
		if s.Frame.Dir == protocol.DirRead {
			return hold(protocol.RegReadData, 0)
		}

		return hold(protocol.RegCmd, s.Frame.Payload[s.CurData])
	case StateDisable1:
		return write(protocol.RegEnable, protocol.DisableValue)
	case StateDisable2:
		return hold(protocol.RegEnable, protocol.DisableValue)
	default:
		return wishbone.Request{}
	}
}

func write(addr protocol.RegAddr, data uint8) wishbone.Request {
	return wishbone.Request{
		Cyc:  true,
		Stb:  true,
		We:   true,
		Adr:  uint8(addr),
		DatW: data,
	}
}

func read(addr protocol.RegAddr) wishbone.Request {
	return wishbone.Request{
		Cyc: true,
		Stb: true,
		Adr: uint8(addr),
	}
}

func hold(addr protocol.RegAddr, data uint8) wishbone.Request {
	return wishbone.Request{
		Adr:  uint8(addr),
		DatW: data,
	}
}

// Status returns the strobes of the current cycle.
func (c *Comp) Status() Status {
	s := c.state.Get()

	return Status{
		Done:      s.FSM == StateDisable2,
		ByteReady: s.FSM == StateData2 && s.Frame.Dir == protocol.DirRead,
		Data:      s.RdData,
		Idle:      s.FSM == StateIdle,
	}
}

// Step computes the state of the next cycle from the control input and the
// bus response of the current cycle.
func (c *Comp) Step(ctl Control, rsp wishbone.Response) {
	cur := c.state.Get()
	next := c.state.Next()

	switch cur.FSM {
	case StateIdle:
		if ctl.Req {
			c.accept(next, ctl.Frame)
		}
	case StateEnable1:
		c.waitAck(cur, next, rsp, StateEnable2)
	case StateEnable2:
		next.FSM = StateCmd1
	case StateCmd1:
		c.waitAck(cur, next, rsp, StateCmd2)
	case StateCmd2:
		next.FSM = afterCmd(cur.Frame)
	case StateOperand1:
		c.waitAck(cur, next, rsp, StateOperand2)
	case StateOperand2:
		c.stepOperand(cur, next)
	case StateData1:
		if rsp.Ack && cur.Frame.Dir == protocol.DirRead {
			next.RdData = rsp.DatR
		}

		c.waitAck(cur, next, rsp, StateData2)
	case StateData2:
		c.stepData(cur, next)
	case StateDisable1:
		c.waitAck(cur, next, rsp, StateDisable2)
	case StateDisable2:
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosFrameDone,
			Item:   cur.Frame,
		})

		next.FSM = StateIdle
		if ctl.Req {
			c.accept(next, ctl.Frame)
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

func (c *Comp) accept(next *State, f protocol.Frame) {
	if err := f.Validate(); err != nil {
		c.fault(fmt.Errorf("%s: %w", c.Name(), err))
		return
	}

	next.FSM = StateEnable1
	next.Frame = f.Clone()
	next.CurOp = 0
	next.CurData = 0
	next.Wait = 0

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosFrameStart,
		Item:   next.Frame,
	})
}

func (c *Comp) waitAck(
	cur State,
	next *State,
	rsp wishbone.Response,
	after StateID,
) {
	if rsp.Ack {
		next.FSM = after
		next.Wait = 0

		return
	}

	next.Wait = cur.Wait + 1
	if c.Spec.AckTimeout > 0 && next.Wait >= c.Spec.AckTimeout {
		c.fault(&AckTimeoutError{
			Sequencer: c.Name(),
			State:     cur.FSM,
			Opcode:    cur.Frame.Opcode,
			Addr:      protocol.RegAddr(c.Bus().Adr),
			Cycles:    next.Wait,
		})
	}
}

func (c *Comp) fault(err error) {
	if c.err != nil {
		return
	}

	c.err = err
	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosFault,
		Item:   err,
	})
}

func afterCmd(f protocol.Frame) StateID {
	switch {
	case f.Operands.Len() > 0:
		return StateOperand1
	case f.DataLen > 0:
		return StateData1
	default:
		return StateDisable1
	}
}

func (c *Comp) stepOperand(cur State, next *State) {
	if int(cur.CurOp) < cur.Frame.Operands.Len()-1 {
		next.CurOp = cur.CurOp + 1
		next.FSM = StateOperand1

		return
	}

	next.CurOp = 0
	if cur.Frame.DataLen > 0 {
		next.FSM = StateData1
	} else {
		next.FSM = StateDisable1
	}
}

func (c *Comp) stepData(cur State, next *State) {
	if cur.CurData < cur.Frame.DataLen-1 {
		next.CurData = cur.CurData + 1
		next.FSM = StateData1

		return
	}

	next.CurData = 0
	next.FSM = StateDisable1
}

var _ sim.Named = (*Comp)(nil)
