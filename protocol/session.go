package protocol

// Address layout of the byte-read port.
const (
	PageSize   = 16
	OffsetBits = 4
	PageBits   = 11
	AddrBits   = PageBits + OffsetBits
	MaxAddr    = 1<<AddrBits - 1
)

// PageOf returns the page index of a byte address.
func PageOf(addr uint16) uint16 {
	return (addr >> OffsetBits) & (1<<PageBits - 1)
}

// OffsetOf returns the position of a byte address within its page.
func OffsetOf(addr uint16) uint8 {
	return uint8(addr & (PageSize - 1))
}

// PageAddr returns the address of the first byte of a page.
func PageAddr(page uint16) uint16 {
	return page << OffsetBits
}

// Session lists the frames that fill one page when the first status poll
// reports ready. Every busy poll repeats the PollStatusFrame.
func Session(t Target) []Frame {
	return []Frame{
		EnableConfigFrame(),
		PollStatusFrame(),
		SetUFMAddrFrame(t),
		ReadUFMFrame(),
		DisableConfigFrame(),
		BypassFrame(),
	}
}
