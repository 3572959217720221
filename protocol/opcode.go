// Package protocol holds the fixed wire contract between the UFM reader and
// the configuration block: opcodes, register addresses, operand encodings
// and the frames of a page-fill session.
package protocol

import "fmt"

// Opcode identifies a configuration command.
type Opcode uint8

// The opcodes understood by the configuration block.
const (
	OpIdle          Opcode = 0x00
	OpEnableConfig  Opcode = 0x74
	OpPollStatus    Opcode = 0x3C
	OpSetUFMAddr    Opcode = 0xB4
	OpReadUFM       Opcode = 0xCA
	OpDisableConfig Opcode = 0x26
	OpBypass        Opcode = 0xFF
)

var opcodeNames = map[Opcode]string{
	OpIdle:          "IDLE",
	OpEnableConfig:  "ENABLE_CONFIG",
	OpPollStatus:    "POLL_STATUS",
	OpSetUFMAddr:    "SET_UFM_ADDR",
	OpReadUFM:       "READ_UFM",
	OpDisableConfig: "DISABLE_CONFIG",
	OpBypass:        "BYPASS",
}

// Known tells if the opcode is part of the command table.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}

	return fmt.Sprintf("Opcode(0x%02X)", uint8(o))
}

// RegAddr is an address on the 8-bit register bus.
type RegAddr uint8

// Registers of the configuration interface.
const (
	RegEnable   RegAddr = 0x70
	RegCmd      RegAddr = 0x71
	RegReadData RegAddr = 0x73
)

// Values written to RegEnable.
const (
	EnableValue  byte = 0x80
	DisableValue byte = 0x00
)

func (a RegAddr) String() string {
	switch a {
	case RegEnable:
		return "ENABLE"
	case RegCmd:
		return "CMD"
	case RegReadData:
		return "READ_DATA"
	default:
		return fmt.Sprintf("Reg(0x%02X)", uint8(a))
	}
}
