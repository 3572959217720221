package efb

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/wishbone"
)

// busMaster runs single register accesses against a slave, one idle cycle
// between accesses.
type busMaster struct {
	slave  wishbone.Slave
	cycles int
}

func (m *busMaster) access(req wishbone.Request) (byte, bool) {
	for i := 0; i < 16; i++ {
		rsp := m.slave.Respond(req)
		m.slave.Clock(req)
		m.cycles++

		if rsp.Ack {
			m.slave.Clock(wishbone.Request{})
			m.cycles++

			return rsp.DatR, true
		}
	}

	return 0, false
}

func (m *busMaster) write(addr protocol.RegAddr, data byte) bool {
	_, ok := m.access(wishbone.Request{
		Cyc: true, Stb: true, We: true, Adr: uint8(addr), DatW: data,
	})

	return ok
}

func (m *busMaster) read() (byte, bool) {
	return m.access(wishbone.Request{
		Cyc: true, Stb: true, Adr: uint8(protocol.RegReadData),
	})
}

func (m *busMaster) frame(f protocol.Frame) []byte {
	Expect(m.write(protocol.RegEnable, protocol.EnableValue)).To(BeTrue())
	Expect(m.write(protocol.RegCmd, uint8(f.Opcode))).To(BeTrue())

	for _, b := range f.Operands.Slice() {
		Expect(m.write(protocol.RegCmd, b)).To(BeTrue())
	}

	var data []byte
	for i := 0; i < int(f.DataLen); i++ {
		if f.Dir == protocol.DirWrite {
			Expect(m.write(protocol.RegCmd, f.Payload[i])).To(BeTrue())
			continue
		}

		b, ok := m.read()
		Expect(ok).To(BeTrue())
		data = append(data, b)
	}

	Expect(m.write(protocol.RegEnable, protocol.DisableValue)).To(BeTrue())

	return data
}

func testMemory() *Memory {
	mem := NewMemory(8)
	pages := make([]Page, 8)
	for i := range pages {
		for j := range pages[i] {
			pages[i][j] = byte(i<<4 | j)
		}
	}
	Expect(mem.Load(0, pages)).To(Succeed())

	return mem
}

var _ = Describe("Peer", func() {
	var (
		peer *Peer
		m    *busMaster
	)

	BeforeEach(func() {
		peer = NewPeer(PeerSpec{AckLatency: 1, BusyPolls: 2}, testMemory())
		m = &busMaster{slave: peer}
	})

	It("should serve a page-fill session", func() {
		m.frame(protocol.EnableConfigFrame())
		Expect(peer.ConfigEnabled()).To(BeTrue())

		busy := 0
		for {
			status := m.frame(protocol.PollStatusFrame())
			Expect(status).To(HaveLen(4))
			if !protocol.StatusByte(status[2]).Busy() {
				break
			}
			busy++
		}
		Expect(busy).To(Equal(2))
		Expect(peer.Polls()).To(Equal(3))

		m.frame(protocol.SetUFMAddrFrame(protocol.Target{
			Page: 5, Space: protocol.SpaceUFM,
		}))
		data := m.frame(protocol.ReadUFMFrame())
		m.frame(protocol.DisableConfigFrame())
		m.frame(protocol.BypassFrame())

		Expect(data).To(HaveLen(16))
		Expect(data[0]).To(Equal(byte(0x50)))
		Expect(data[15]).To(Equal(byte(0x5F)))
		Expect(peer.ConfigEnabled()).To(BeFalse())
		Expect(peer.Violations()).To(BeEmpty())
		Expect(peer.Commands()).To(Equal([]protocol.Opcode{
			protocol.OpEnableConfig,
			protocol.OpPollStatus, protocol.OpPollStatus, protocol.OpPollStatus,
			protocol.OpSetUFMAddr, protocol.OpReadUFM,
			protocol.OpDisableConfig, protocol.OpBypass,
		}))
	})

	It("should advance the page after each read", func() {
		m.frame(protocol.EnableConfigFrame())
		m.frame(protocol.SetUFMAddrFrame(protocol.Target{
			Page: 2, Space: protocol.SpaceUFM,
		}))

		first := m.frame(protocol.ReadUFMFrame())
		second := m.frame(protocol.ReadUFMFrame())

		Expect(first[0]).To(Equal(byte(0x20)))
		Expect(second[0]).To(Equal(byte(0x30)))
	})

	It("should report the fail flag", func() {
		peer = NewPeer(PeerSpec{FailStatus: true}, testMemory())
		m = &busMaster{slave: peer}

		m.frame(protocol.EnableConfigFrame())
		status := m.frame(protocol.PollStatusFrame())

		Expect(protocol.StatusByte(status[2]).Fail()).To(BeTrue())
		Expect(protocol.StatusByte(status[2]).Busy()).To(BeFalse())
	})

	It("should acknowledge in the same cycle without latency", func() {
		peer = NewPeer(PeerSpec{}, testMemory())
		m = &busMaster{slave: peer}

		Expect(m.write(protocol.RegEnable, protocol.EnableValue)).To(BeTrue())
		Expect(m.cycles).To(Equal(2))
	})

	It("should wait for the configured latency", func() {
		peer = NewPeer(PeerSpec{AckLatency: 3}, testMemory())
		m = &busMaster{slave: peer}

		Expect(m.write(protocol.RegEnable, protocol.EnableValue)).To(BeTrue())
		Expect(m.cycles).To(Equal(5))
	})

	It("should stop acknowledging after the stall point", func() {
		peer = NewPeer(PeerSpec{StallAfter: 2}, testMemory())
		m = &busMaster{slave: peer}

		Expect(m.write(protocol.RegEnable, protocol.EnableValue)).To(BeTrue())
		Expect(m.write(protocol.RegCmd, uint8(protocol.OpBypass))).To(BeTrue())
		Expect(m.write(protocol.RegEnable, protocol.DisableValue)).To(BeFalse())
		Expect(peer.Transactions()).To(Equal(uint64(2)))
	})

	It("should record protocol violations", func() {
		m.write(protocol.RegCmd, 0x12)
		m.read()
		m.write(protocol.RegEnable, protocol.DisableValue)
		m.frame(protocol.PollStatusFrame())
		m.frame(protocol.SetUFMAddrFrame(protocol.Target{Page: 100}))

		Expect(peer.Violations()).To(HaveLen(7))
	})
})
