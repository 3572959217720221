package pagebuffer

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
	"github.com/efbutils/ufmsim/ufm"
)

type observed struct {
	result ufm.ReadResult
	fill   ufm.FillRequest
}

var _ = Describe("PageBuffer", func() {
	var (
		mgr   *state.Manager
		pb    *Comp
		fills []uint16
		hits  int
	)

	cycle := func(req ufm.ReadRequest, fill ufm.FillData) observed {
		o := observed{result: pb.Result(), fill: pb.FillRequest()}
		if o.fill.Stb {
			fills = append(fills, o.fill.Page)
		}

		pb.Step(req, fill)
		mgr.CommitAll()

		return o
	}

	read := func(addr uint16) ufm.ReadRequest {
		return ufm.ReadRequest{Addr: addr, ReadEn: true}
	}

	pageByte := func(page uint16, i int) byte {
		return byte(page)*16 + byte(i)
	}

	// fillPage streams one page while the request stays on the port.
	fillPage := func(req ufm.ReadRequest, page uint16) {
		for i := 0; i < 16; i++ {
			o := cycle(req, ufm.FillData{Ack: true, Data: pageByte(page, i)})
			Expect(o.result.Valid).To(BeFalse())
		}
	}

	BeforeEach(func() {
		mgr = state.NewManager()
		pb = MakeBuilder().Build("PB")
		Expect(pb.Register(mgr)).To(Succeed())
		fills = nil
		hits = 0

		pb.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosHit {
				hits++
			}
		}))
	})

	It("should request a fill on the first read", func() {
		cycle(read(0x123), ufm.FillData{})
		o := cycle(read(0x123), ufm.FillData{})

		Expect(o.fill).To(Equal(ufm.FillRequest{Stb: true, Page: 0x12}))
		Expect(o.result.Valid).To(BeFalse())
		Expect(pb.State().FSM).To(Equal(StateFill))

		o = cycle(read(0x123), ufm.FillData{})
		Expect(o.fill.Stb).To(BeFalse())
	})

	It("should become valid one cycle after the fill completes", func() {
		req := read(0x125)
		cycle(req, ufm.FillData{})
		fillPage(req, 0x12)

		Expect(pb.State().FSM).To(Equal(StateValid))

		o := cycle(req, ufm.FillData{})
		Expect(o.result.Valid).To(BeFalse())

		o = cycle(req, ufm.FillData{})
		Expect(o.result.Valid).To(BeTrue())
		Expect(o.result.Data).To(Equal(pageByte(0x12, 5)))
		Expect(fills).To(Equal([]uint16{0x12}))
	})

	It("should ignore requests while filling", func() {
		cycle(read(0x40), ufm.FillData{})

		for i := 0; i < 16; i++ {
			cycle(read(uint16(0x40+i*16)), ufm.FillData{
				Ack:  i%2 == 0,
				Data: byte(i),
			})
		}

		Expect(fills).To(Equal([]uint16{0x4}))
		Expect(pb.State().CurPage).To(Equal(uint16(0x4)))
	})

	Context("when a page is cached", func() {
		BeforeEach(func() {
			req := read(0x70)
			cycle(req, ufm.FillData{})
			fillPage(req, 0x7)
			cycle(ufm.ReadRequest{}, ufm.FillData{})
			fills = nil
		})

		It("should serve hits with one cycle of latency", func() {
			for i := 0; i < 16; i++ {
				cycle(read(uint16(0x70+i)), ufm.FillData{})
				o := cycle(ufm.ReadRequest{}, ufm.FillData{})

				Expect(o.result.Valid).To(BeTrue())
				Expect(o.result.Data).To(Equal(pageByte(0x7, i)))
			}

			Expect(fills).To(BeEmpty())
			Expect(hits).To(Equal(16))
		})

		It("should not report valid without a read enable", func() {
			o := cycle(ufm.ReadRequest{Addr: 0x71}, ufm.FillData{})
			Expect(o.result.Valid).To(BeFalse())

			o = cycle(ufm.ReadRequest{}, ufm.FillData{})
			Expect(o.result.Valid).To(BeFalse())
		})

		It("should evict the page on a miss", func() {
			req := read(0x93)
			cycle(req, ufm.FillData{})

			o := cycle(req, ufm.FillData{})
			Expect(o.result.Valid).To(BeFalse())
			Expect(o.fill).To(Equal(ufm.FillRequest{Stb: true, Page: 0x9}))

			fillPage(req, 0x9)
			cycle(req, ufm.FillData{})
			o = cycle(req, ufm.FillData{})

			Expect(o.result.Valid).To(BeTrue())
			Expect(o.result.Data).To(Equal(pageByte(0x9, 3)))
		})

		It("should not answer a request for another page with stale data", func() {
			cycle(read(0x93), ufm.FillData{})
			fillPage(read(0x93), 0x9)

			// The consumer moved on to page 0xA while page 0x9 was filling.
			req := read(0xA0)
			o := cycle(req, ufm.FillData{})
			Expect(o.result.Valid).To(BeFalse())

			o = cycle(req, ufm.FillData{})
			Expect(o.result.Valid).To(BeFalse())
			Expect(o.fill).To(Equal(ufm.FillRequest{Stb: true, Page: 0xA}))
		})

		It("should refill after a flush", func() {
			cycle(ufm.ReadRequest{Flush: true}, ufm.FillData{})
			Expect(pb.State().FSM).To(Equal(StateInit))

			req := read(0x72)
			cycle(req, ufm.FillData{})
			o := cycle(req, ufm.FillData{})

			Expect(o.fill).To(Equal(ufm.FillRequest{Stb: true, Page: 0x7}))
			Expect(o.result.Valid).To(BeFalse())
		})
	})
})
