package protocol

// PollStatusLen is the number of bytes a POLL_STATUS frame reads.
const PollStatusLen = 4

// StatusByteIndex is the position of the flag byte among the poll bytes.
const StatusByteIndex = 2

// Flag bits of the status byte.
const (
	StatusBusyBit = 4
	StatusFailBit = 5
)

// StatusByte is the third byte returned by POLL_STATUS.
type StatusByte byte

// Busy tells if the flash is still working on the previous command.
func (s StatusByte) Busy() bool {
	return s&(1<<StatusBusyBit) != 0
}

// Fail tells if the previous command failed.
func (s StatusByte) Fail() bool {
	return s&(1<<StatusFailBit) != 0
}

// MakeStatusByte builds a status byte from its flags.
func MakeStatusByte(busy, fail bool) StatusByte {
	var s StatusByte
	if busy {
		s |= 1 << StatusBusyBit
	}

	if fail {
		s |= 1 << StatusFailBit
	}

	return s
}
