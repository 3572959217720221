package protocol

import "log"

// MaxOperands is the largest operand block a command carries.
const MaxOperands = 3

// Well known 24-bit operand patterns.
const (
	OperandZeros   uint32 = 0x000000
	OperandOne     uint32 = 0x000001
	OperandEnable  uint32 = 0x080000
	OperandAllOnes uint32 = 0xFFFFFF
)

// Operands are the bytes that follow an opcode, in wire order.
type Operands struct {
	Bytes [MaxOperands]byte
	Count uint8
}

// NewOperands builds an operand block from bytes given in wire order.
func NewOperands(b ...byte) Operands {
	if len(b) > MaxOperands {
		log.Panicf("protocol: %d operand bytes, at most %d allowed",
			len(b), MaxOperands)
	}

	o := Operands{Count: uint8(len(b))}
	copy(o.Bytes[:], b)

	return o
}

// ConstantOperands encodes a 24-bit constant, most significant byte first.
func ConstantOperands(v uint32) Operands {
	return NewOperands(byte(v>>16), byte(v>>8), byte(v))
}

// ZeroOperands returns n zero bytes.
func ZeroOperands(n int) Operands {
	return NewOperands(make([]byte, n)...)
}

// ReadUFMOperands encodes the page count (bits 0..15) and the read port
// selector (bit 20) of a READ_UFM command.
func ReadUFMOperands(pages uint16, port bool) Operands {
	v := uint32(pages)
	if port {
		v |= 1 << 20
	}

	return ConstantOperands(v)
}

// Len returns the number of operand bytes.
func (o Operands) Len() int {
	return int(o.Count)
}

// Byte returns the i-th byte on the wire.
func (o Operands) Byte(i int) byte {
	return o.Bytes[i]
}

// Slice returns the operand bytes in wire order.
func (o Operands) Slice() []byte {
	return append([]byte(nil), o.Bytes[:o.Count]...)
}

// Value returns the operands as a big-endian number.
func (o Operands) Value() uint32 {
	var v uint32
	for i := 0; i < o.Len(); i++ {
		v = v<<8 | uint32(o.Bytes[i])
	}

	return v
}
