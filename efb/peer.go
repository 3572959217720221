package efb

import (
	"fmt"

	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/wishbone"
)

// PeerSpec configures the behavior of the configuration interface model.
type PeerSpec struct {
	// AckLatency is the number of cycles between a request and its
	// acknowledge. Zero acknowledges in the same cycle.
	AckLatency int

	// BusyPolls is the number of status polls that report busy after each
	// ENABLE_CONFIG.
	BusyPolls int

	// FailStatus sets the fail flag of every status poll.
	FailStatus bool

	// StallAfter stops acknowledging after this many transactions. Zero
	// never stalls.
	StallAfter uint64
}

// operandCount is the number of operand bytes each command carries.
var operandCount = map[protocol.Opcode]int{
	protocol.OpEnableConfig:  3,
	protocol.OpPollStatus:    3,
	protocol.OpSetUFMAddr:    3,
	protocol.OpReadUFM:       3,
	protocol.OpDisableConfig: 2,
	protocol.OpBypass:        0,
	protocol.OpIdle:          0,
}

// Peer models the configuration interface of the EFB as seen from the
// register bus.
type Peer struct {
	spec PeerSpec
	mem  *Memory

	waited int
	ack    bool
	txns   uint64

	frameOpen bool
	cmd       []byte
	reads     int

	configEnabled bool
	busyLeft      int
	page          int

	polls      int
	commands   []protocol.Opcode
	violations []string
}

// NewPeer creates a configuration interface in front of mem.
func NewPeer(spec PeerSpec, mem *Memory) *Peer {
	return &Peer{spec: spec, mem: mem}
}

// Respond returns the acknowledge and read data of the current cycle.
func (p *Peer) Respond(req wishbone.Request) wishbone.Response {
	if !req.Active() || p.stalled() {
		return wishbone.Response{}
	}

	rsp := wishbone.Response{Ack: p.spec.AckLatency == 0 || p.ack}
	if !req.We {
		rsp.DatR = p.peekRead(req.Adr)
	}

	return rsp
}

// Clock applies the transaction of the current cycle, if acknowledged.
func (p *Peer) Clock(req wishbone.Request) {
	if p.Respond(req).Ack {
		p.execute(req)
		p.txns++
	}

	if p.spec.AckLatency == 0 {
		return
	}

	if req.Active() && !p.ack && !p.stalled() {
		p.waited++
		if p.waited >= p.spec.AckLatency {
			p.ack = true
			p.waited = 0
		}

		return
	}

	p.ack = false
}

func (p *Peer) stalled() bool {
	return p.spec.StallAfter > 0 && p.txns >= p.spec.StallAfter
}

// Transactions returns the number of acknowledged transactions.
func (p *Peer) Transactions() uint64 {
	return p.txns
}

// Polls returns the number of completed POLL_STATUS commands.
func (p *Peer) Polls() int {
	return p.polls
}

// Commands returns the opcodes of the completed commands, in order.
func (p *Peer) Commands() []protocol.Opcode {
	return append([]protocol.Opcode(nil), p.commands...)
}

// Violations returns the protocol errors seen on the bus.
func (p *Peer) Violations() []string {
	return append([]string(nil), p.violations...)
}

// ConfigEnabled tells if the configuration interface is open.
func (p *Peer) ConfigEnabled() bool {
	return p.configEnabled
}

func (p *Peer) violate(format string, args ...any) {
	p.violations = append(p.violations, fmt.Sprintf(format, args...))
}

func (p *Peer) execute(req wishbone.Request) {
	addr := protocol.RegAddr(req.Adr)

	switch {
	case req.We && addr == protocol.RegEnable:
		p.writeEnable(req.DatW)
	case req.We && addr == protocol.RegCmd:
		if !p.frameOpen {
			p.violate("write 0x%02X to %s outside a frame", req.DatW, addr)
			return
		}

		p.cmd = append(p.cmd, req.DatW)
	case !req.We && addr == protocol.RegReadData:
		if !p.frameOpen || !p.producesData() {
			p.violate("read from %s without a read command", addr)
			return
		}

		p.reads++
	default:
		p.violate("unexpected access to %s (we=%t)", addr, req.We)
	}
}

func (p *Peer) writeEnable(v byte) {
	switch v {
	case protocol.EnableValue:
		if p.frameOpen {
			p.violate("enable while a frame is open")
		}

		p.frameOpen = true
		p.cmd = p.cmd[:0]
		p.reads = 0
	case protocol.DisableValue:
		if !p.frameOpen {
			p.violate("disable without an open frame")
			return
		}

		p.finishFrame()
		p.frameOpen = false
	default:
		p.violate("invalid enable value 0x%02X", v)
	}
}

func (p *Peer) opcode() (protocol.Opcode, bool) {
	if len(p.cmd) == 0 {
		return protocol.OpIdle, false
	}

	return protocol.Opcode(p.cmd[0]), true
}

func (p *Peer) producesData() bool {
	op, ok := p.opcode()
	if !ok || len(p.cmd) < 1+operandCount[op] {
		return false
	}

	return op == protocol.OpPollStatus || op == protocol.OpReadUFM
}

func (p *Peer) peekRead(adr uint8) byte {
	if protocol.RegAddr(adr) != protocol.RegReadData || !p.producesData() {
		return 0xFF
	}

	op, _ := p.opcode()
	if op == protocol.OpPollStatus {
		if p.reads%protocol.PollStatusLen == protocol.StatusByteIndex {
			return byte(protocol.MakeStatusByte(p.busyLeft > 0, p.spec.FailStatus))
		}

		return 0x00
	}

	page := p.page + p.reads/protocol.PageSize
	pg, ok := p.mem.Page(page)
	if !ok {
		return 0xFF
	}

	return pg[p.reads%protocol.PageSize]
}

func (p *Peer) finishFrame() {
	op, ok := p.opcode()
	if !ok {
		p.violate("empty frame")
		return
	}

	n, known := operandCount[op]
	if !known {
		p.violate("unknown opcode %s", op)
		return
	}

	if len(p.cmd) < 1+n {
		p.violate("%s with %d operand bytes, want %d", op, len(p.cmd)-1, n)
		return
	}

	operands := p.cmd[1 : 1+n]
	data := p.cmd[1+n:]
	p.commands = append(p.commands, op)

	switch op {
	case protocol.OpEnableConfig:
		if protocol.NewOperands(operands...).Value() != protocol.OperandEnable {
			p.violate("ENABLE_CONFIG operands % X", operands)
		}

		p.configEnabled = true
		p.busyLeft = p.spec.BusyPolls
	case protocol.OpPollStatus:
		p.requireConfig(op)
		p.polls++

		if p.busyLeft > 0 {
			p.busyLeft--
		}
	case protocol.OpSetUFMAddr:
		p.requireConfig(op)
		p.setAddress(data)
	case protocol.OpReadUFM:
		p.requireConfig(op)
		p.page += p.reads / protocol.PageSize
	case protocol.OpDisableConfig:
		p.configEnabled = false
	}
}

func (p *Peer) requireConfig(op protocol.Opcode) {
	if !p.configEnabled {
		p.violate("%s while the configuration interface is closed", op)
	}
}

func (p *Peer) setAddress(data []byte) {
	if len(data) != 4 {
		p.violate("SET_UFM_ADDR with %d data bytes", len(data))
		return
	}

	t := protocol.UnpackTarget([4]byte(data))
	if t.Space != protocol.SpaceUFM {
		p.violate("SET_UFM_ADDR to the %s space", t.Space)
	}

	if int(t.Page) >= p.mem.NumPages() {
		p.violate("SET_UFM_ADDR to page %d, last page is %d",
			t.Page, p.mem.NumPages()-1)
	}

	p.page = int(t.Page)
}

var _ wishbone.Slave = (*Peer)(nil)
