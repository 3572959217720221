package wishbone

import (
	"fmt"

	"github.com/efbutils/ufmsim/sim"
)

// A Transaction is one acknowledged register access.
type Transaction struct {
	Start sim.VTimeInCycle
	End   sim.VTimeInCycle
	Write bool
	Addr  uint8
	Data  uint8
}

// Wait returns the number of cycles the master waited for the acknowledge.
func (t Transaction) Wait() uint64 {
	return uint64(t.End - t.Start)
}

func (t Transaction) String() string {
	dir := "rd"
	if t.Write {
		dir = "wr"
	}

	return fmt.Sprintf("@%d %s 0x%02X 0x%02X wait %d",
		t.Start, dir, t.Addr, t.Data, t.Wait())
}

// Monitor watches the bus lines cycle by cycle and reports completed
// transactions. It also counts requests that change their address or
// direction before being acknowledged.
type Monitor struct {
	inFlight   bool
	cur        Transaction
	violations int
	count      uint64
}

// Observe feeds the lines of one cycle. It returns the transaction that the
// acknowledge of this cycle completes, if any.
func (m *Monitor) Observe(
	now sim.VTimeInCycle,
	req Request,
	rsp Response,
) (Transaction, bool) {
	if !req.Active() {
		if rsp.Ack {
			m.violations++
		}

		m.inFlight = false

		return Transaction{}, false
	}

	if m.inFlight && (m.cur.Addr != req.Adr || m.cur.Write != req.We) {
		m.violations++
		m.inFlight = false
	}

	if !m.inFlight {
		m.inFlight = true
		m.cur = Transaction{
			Start: now,
			Write: req.We,
			Addr:  req.Adr,
		}
	}

	if !rsp.Ack {
		return Transaction{}, false
	}

	txn := m.cur
	txn.End = now
	if txn.Write {
		txn.Data = req.DatW
	} else {
		txn.Data = rsp.DatR
	}

	m.inFlight = false
	m.count++

	return txn, true
}

// Violations returns the number of malformed cycles seen so far.
func (m *Monitor) Violations() int {
	return m.violations
}

// Count returns the number of completed transactions.
func (m *Monitor) Count() uint64 {
	return m.count
}

// InFlight tells if a request is waiting for its acknowledge.
func (m *Monitor) InFlight() bool {
	return m.inFlight
}
