// Package wishbone models the 8-bit register bus that connects the UFM
// reader to the configuration block.
package wishbone

import (
	"fmt"
)

// Request holds the master-driven lines of one bus cycle.
type Request struct {
	Cyc  bool
	Stb  bool
	We   bool
	Adr  uint8
	DatW uint8
}

// Active tells if the master is asking for a transfer.
func (r Request) Active() bool {
	return r.Cyc && r.Stb
}

func (r Request) String() string {
	if !r.Active() {
		return "idle"
	}

	if r.We {
		return fmt.Sprintf("wr 0x%02X <- 0x%02X", r.Adr, r.DatW)
	}

	return fmt.Sprintf("rd 0x%02X", r.Adr)
}

// Response holds the slave-driven lines of one bus cycle.
type Response struct {
	Ack  bool
	DatR uint8
}

// A Slave answers register requests.
type Slave interface {
	// Respond returns the lines the slave drives in the current cycle. It
	// must not change the state of the slave.
	Respond(req Request) Response

	// Clock advances the slave by one clock edge with the request that was
	// on the bus during the cycle.
	Clock(req Request)
}
