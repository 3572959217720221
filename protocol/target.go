package protocol

import "fmt"

// Space selects the flash region a page number refers to.
type Space uint8

// Flash regions.
const (
	SpaceConfig Space = 0
	SpaceUFM    Space = 1
)

func (s Space) String() string {
	if s == SpaceUFM {
		return "ufm"
	}

	return "config"
}

// MaxTargetPage is the largest page number a target descriptor encodes.
const MaxTargetPage = 1<<14 - 1

// Target is the page address sent with SET_UFM_ADDR.
type Target struct {
	Page  uint16
	Space Space
}

// Pack encodes the target as four bytes, most significant first.
func (t Target) Pack() [4]byte {
	return [4]byte{
		byte(t.Space&1) << 6,
		0x00,
		byte((t.Page & 0x3F00) >> 8),
		byte(t.Page & 0xFF),
	}
}

// UnpackTarget decodes four SET_UFM_ADDR data bytes.
func UnpackTarget(b [4]byte) Target {
	return Target{
		Page:  uint16(b[2]&0x3F)<<8 | uint16(b[3]),
		Space: Space(b[0]>>6) & 1,
	}
}

func (t Target) String() string {
	return fmt.Sprintf("%s page %d", t.Space, t.Page)
}
