package protocol

import (
	"errors"
	"fmt"
	"slices"
)

// MaxDataLen is the largest data phase of a frame.
const MaxDataLen = 63

// Direction of the data phase.
type Direction uint8

// Data phase directions.
const (
	DirWrite Direction = iota
	DirRead
)

func (d Direction) String() string {
	if d == DirRead {
		return "read"
	}

	return "write"
}

// ErrInvalidFrame is returned by Frame.Validate.
var ErrInvalidFrame = errors.New("invalid frame")

// A Frame is one enable, opcode, operands, data, disable exchange. A frame
// must not change once it is handed to the sequencer.
type Frame struct {
	Opcode   Opcode
	Operands Operands
	Dir      Direction
	DataLen  uint8
	Payload  []byte
}

// Validate checks the length and direction constraints of the frame.
func (f Frame) Validate() error {
	if !f.Opcode.Known() {
		return fmt.Errorf("%w: unknown opcode %s", ErrInvalidFrame, f.Opcode)
	}

	if f.Operands.Len() > MaxOperands {
		return fmt.Errorf("%w: %d operand bytes", ErrInvalidFrame,
			f.Operands.Len())
	}

	if f.DataLen > MaxDataLen {
		return fmt.Errorf("%w: data length %d exceeds %d",
			ErrInvalidFrame, f.DataLen, MaxDataLen)
	}

	switch f.Dir {
	case DirRead:
		if len(f.Payload) != 0 {
			return fmt.Errorf("%w: read frame carries a payload",
				ErrInvalidFrame)
		}
	case DirWrite:
		if len(f.Payload) != int(f.DataLen) {
			return fmt.Errorf("%w: payload has %d bytes, data length is %d",
				ErrInvalidFrame, len(f.Payload), f.DataLen)
		}
	default:
		return fmt.Errorf("%w: unknown direction %d", ErrInvalidFrame, f.Dir)
	}

	return nil
}

// Clone returns a copy that does not share the payload.
func (f Frame) Clone() Frame {
	f.Payload = slices.Clone(f.Payload)
	return f
}

// NumBusCycles is the number of register transactions the frame takes.
func (f Frame) NumBusCycles() int {
	return 3 + f.Operands.Len() + int(f.DataLen)
}

func (f Frame) String() string {
	return fmt.Sprintf("%s op=%d data=%d %s",
		f.Opcode, f.Operands.Len(), f.DataLen, f.Dir)
}

// IdleFrame is the empty command.
func IdleFrame() Frame {
	return Frame{Opcode: OpIdle}
}

// EnableConfigFrame opens the configuration interface.
func EnableConfigFrame() Frame {
	return Frame{
		Opcode:   OpEnableConfig,
		Operands: ConstantOperands(OperandEnable),
	}
}

// PollStatusFrame reads the four status bytes.
func PollStatusFrame() Frame {
	return Frame{
		Opcode:   OpPollStatus,
		Operands: ZeroOperands(3),
		Dir:      DirRead,
		DataLen:  PollStatusLen,
	}
}

// SetUFMAddrFrame moves the flash address pointer to the target page.
func SetUFMAddrFrame(t Target) Frame {
	packed := t.Pack()

	return Frame{
		Opcode:   OpSetUFMAddr,
		Operands: ZeroOperands(3),
		Dir:      DirWrite,
		DataLen:  uint8(len(packed)),
		Payload:  packed[:],
	}
}

// ReadUFMFrame reads one page from the flash address pointer.
func ReadUFMFrame() Frame {
	return Frame{
		Opcode:   OpReadUFM,
		Operands: ReadUFMOperands(1, true),
		Dir:      DirRead,
		DataLen:  PageSize,
	}
}

// DisableConfigFrame closes the configuration interface.
func DisableConfigFrame() Frame {
	return Frame{
		Opcode:   OpDisableConfig,
		Operands: ZeroOperands(2),
	}
}

// BypassFrame is the no-op that ends a session.
func BypassFrame() Frame {
	return Frame{Opcode: OpBypass}
}
