package reader

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gmeasure"

	"github.com/efbutils/ufmsim/efb"
	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/ufm"
	"github.com/efbutils/ufmsim/ufm/pagebuffer"
	"github.com/efbutils/ufmsim/ufm/sequencer"
)

func newMemory() *efb.Memory {
	mem := efb.NewMemory(128)
	pages := make([]efb.Page, 128)
	for i := range pages {
		for j := range pages[i] {
			pages[i][j] = byte(i*7 + j*13)
		}
	}
	Expect(mem.Load(0, pages)).To(Succeed())

	return mem
}

var _ = Describe("Reader", func() {
	var (
		ctx    context.Context
		engine *sim.SerialEngine
		mem    *efb.Memory
		peer   *efb.Peer
		r      *Comp
		done   []RequestInfo
	)

	build := func(spec efb.PeerSpec, b Builder) {
		peer = efb.NewPeer(spec, mem)

		var err error
		r, err = b.WithEngine(engine).WithBus(peer).Build("Reader")
		Expect(err).NotTo(HaveOccurred())

		done = nil
		r.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosRequestDone {
				done = append(done, ctx.Item.(RequestInfo))
			}
		}))
	}

	BeforeEach(func() {
		ctx = context.Background()
		engine = sim.NewSerialEngine()
		mem = newMemory()
		build(efb.PeerSpec{AckLatency: 1}, MakeBuilder())
	})

	Context("when building", func() {
		It("should require an engine", func() {
			_, err := MakeBuilder().WithBus(peer).Build("R")
			Expect(err).To(MatchError(ErrInvalidSpec))
		})

		It("should require a bus", func() {
			_, err := MakeBuilder().WithEngine(engine).Build("R")
			Expect(err).To(MatchError(ErrInvalidSpec))
		})

		It("should reject an empty queue", func() {
			_, err := MakeBuilder().
				WithEngine(engine).
				WithBus(peer).
				WithQueueSize(0).
				Build("R")
			Expect(err).To(MatchError(ErrInvalidSpec))
		})

		It("should reject a space the streamer cannot read", func() {
			_, err := MakeBuilder().
				WithEngine(engine).
				WithBus(peer).
				WithSpace(protocol.SpaceConfig).
				Build("R")
			Expect(err).To(HaveOccurred())
		})

		It("should register the registers of the stack", func() {
			Expect(r.Registers().Keys()).To(ConsistOf(
				"Reader.Sequencer", "Reader.Streamer", "Reader.PageBuffer"))
		})
	})

	It("should fill a page on the first read", func() {
		data, err := r.ReadByte(ctx, 0x123)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(mem.Byte(0x123)))
		Expect(done).To(HaveLen(1))
		Expect(done[0].Hit).To(BeFalse())
		Expect(done[0].Latency()).To(BeNumerically(">=", 32))
		Expect(peer.Commands()).To(HaveLen(6))
		Expect(peer.Violations()).To(BeEmpty())

		stats := r.Stats()
		Expect(stats.Sessions).To(Equal(uint64(1)))
		Expect(stats.Misses).To(Equal(uint64(1)))
		Expect(stats.BusTransactions).To(Equal(peer.Transactions()))
		Expect(stats.Violations).To(BeZero())
	})

	It("should answer a read in the cached page in one cycle", func() {
		_, err := r.ReadByte(ctx, 0x120)
		Expect(err).NotTo(HaveOccurred())
		txns := peer.Transactions()

		data, err := r.ReadByte(ctx, 0x12F)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(mem.Byte(0x12F)))
		Expect(done[1].Hit).To(BeTrue())
		Expect(done[1].Latency()).To(Equal(uint64(1)))
		Expect(peer.Transactions()).To(Equal(txns))
		Expect(r.Stats().Hits).To(Equal(uint64(1)))
		Expect(r.Stats().Sessions).To(Equal(uint64(1)))
	})

	It("should run a new session for another page", func() {
		_, err := r.ReadByte(ctx, 0x010)
		Expect(err).NotTo(HaveOccurred())

		data, err := r.ReadByte(ctx, 0x020)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(mem.Byte(0x020)))
		Expect(done[1].Hit).To(BeFalse())
		Expect(done[1].Latency()).To(BeNumerically(">=", 32))
		Expect(peer.Commands()).To(HaveLen(12))
		Expect(r.Stats().Sessions).To(Equal(uint64(2)))
	})

	It("should fill again after the page is invalidated", func() {
		_, err := r.ReadByte(ctx, 0x120)
		Expect(err).NotTo(HaveOccurred())

		r.Invalidate()
		data, err := r.ReadByte(ctx, 0x121)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(mem.Byte(0x121)))
		Expect(done[1].Hit).To(BeFalse())
		Expect(r.Stats().Sessions).To(Equal(uint64(2)))
		Expect(r.Stats().Hits).To(BeZero())
	})

	It("should serve queued reads of one page with a single session", func() {
		var got []byte
		for a := uint16(0x200); a < 0x210; a++ {
			Expect(r.Submit(a, func(b byte, err error) {
				Expect(err).NotTo(HaveOccurred())
				got = append(got, b)
			})).To(Succeed())
		}

		Expect(engine.Run()).To(Succeed())

		Expect(got).To(HaveLen(16))
		for i, b := range got {
			Expect(b).To(Equal(mem.Byte(0x200 + i)))
		}
		Expect(r.Stats().Sessions).To(Equal(uint64(1)))
		Expect(r.Stats().Misses).To(Equal(uint64(1)))
		Expect(r.Stats().Hits).To(Equal(uint64(15)))
		Expect(peer.Commands()).To(HaveLen(6))
	})

	It("should not restart a fill for a request that is held", func() {
		r.SetRequest(0x345, true)

		Expect(engine.Run()).To(Succeed())

		Expect(r.Result()).To(Equal(ufm.ReadResult{
			Data:  mem.Byte(0x345),
			Valid: true,
		}))
		Expect(r.Stats().Sessions).To(Equal(uint64(1)))
		Expect(r.Stats().Misses).To(Equal(uint64(1)))
	})

	It("should read a range across pages", func() {
		build(efb.PeerSpec{}, MakeBuilder().WithQueueSize(16))

		p := make([]byte, 100)
		n, err := r.ReadAt(ctx, p, 0x3F0)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(100))
		for i, b := range p {
			Expect(b).To(Equal(mem.Byte(0x3F0 + i)))
		}
		Expect(r.Stats().Sessions).To(Equal(uint64(7)))
	})

	It("should measure the cost of sequential reads", func() {
		experiment := gmeasure.NewExperiment("sequential reads")
		AddReportEntry(experiment.Name, experiment)

		experiment.Sample(func(idx int) {
			engine = sim.NewSerialEngine()
			build(efb.PeerSpec{AckLatency: 1}, MakeBuilder())

			p := make([]byte, 64)
			experiment.MeasureDuration("wall time", func() {
				_, err := r.ReadAt(ctx, p, int64(idx*len(p)))
				Expect(err).NotTo(HaveOccurred())
			})

			experiment.RecordValue("cycles per byte",
				float64(r.Stats().Cycles)/float64(len(p)))
			Expect(r.Stats().Sessions).To(Equal(uint64(4)))
		}, gmeasure.SamplingConfig{N: 5})

		cpb := experiment.GetStats("cycles per byte")
		Expect(cpb.FloatFor(gmeasure.StatMin)).To(BeNumerically(">", 1))
	})

	It("should reject addresses outside the array", func() {
		Expect(r.Submit(protocol.MaxAddr+1, nil)).
			To(MatchError(ErrAddressOutOfRange))

		_, err := r.ReadAt(ctx, make([]byte, 2), protocol.MaxAddr)
		Expect(err).To(MatchError(ErrAddressOutOfRange))
	})

	It("should refuse requests beyond the queue size", func() {
		build(efb.PeerSpec{}, MakeBuilder().WithQueueSize(2))

		Expect(r.Submit(0, nil)).To(Succeed())
		Expect(r.Submit(1, nil)).To(Succeed())
		Expect(r.Submit(2, nil)).To(MatchError(ErrQueueFull))
	})

	It("should read a range into the space other requests leave", func() {
		build(efb.PeerSpec{}, MakeBuilder().WithQueueSize(2))

		Expect(r.Submit(0x100, nil)).To(Succeed())

		p := []byte{0xEE, 0xEE, 0xEE}
		n, err := r.ReadAt(ctx, p, 0x20)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
		Expect(p).To(Equal([]byte{
			mem.Byte(0x20), mem.Byte(0x21), mem.Byte(0x22)}))
	})

	It("should not touch the buffer after a failed range read", func() {
		build(efb.PeerSpec{}, MakeBuilder().WithQueueSize(1))

		Expect(r.Submit(0x100, nil)).To(Succeed())

		p := []byte{0xEE, 0xEE}
		n, err := r.ReadAt(ctx, p, 0x20)

		Expect(err).To(MatchError(ErrQueueFull))
		Expect(n).To(BeZero())

		Expect(engine.Run()).To(Succeed())
		Expect(p).To(Equal([]byte{0xEE, 0xEE}))
		Expect(r.Stats().Requests).To(Equal(uint64(1)))
	})

	It("should keep an invalidation made during a fill", func() {
		invalidated := false
		r.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == pagebuffer.HookPosMiss && !invalidated {
				invalidated = true
				r.Invalidate()
			}
		}))

		data, err := r.ReadByte(ctx, 0x120)

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(mem.Byte(0x120)))
		Expect(r.Stats().Sessions).To(Equal(uint64(2)))
		Expect(r.Stats().Misses).To(Equal(uint64(2)))

		_, err = r.ReadByte(ctx, 0x121)

		Expect(err).NotTo(HaveOccurred())
		Expect(done[1].Hit).To(BeTrue())
		Expect(r.Stats().Sessions).To(Equal(uint64(2)))
	})

	It("should fault when the bus stops acknowledging", func() {
		build(efb.PeerSpec{StallAfter: 5}, MakeBuilder().WithAckTimeout(8))

		var faults int
		r.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == sequencer.HookPosFault {
				faults++
			}
		}))

		_, err := r.ReadByte(ctx, 0x040)

		Expect(err).To(MatchError(sequencer.ErrAckTimeout))

		var timeout *sequencer.AckTimeoutError
		Expect(errors.As(r.Err(), &timeout)).To(BeTrue())
		Expect(timeout.Cycles).To(Equal(uint64(8)))
		Expect(faults).To(Equal(1))
		Expect(r.Submit(0x040, nil)).To(MatchError(sequencer.ErrAckTimeout))
	})

	It("should not start on a cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := r.ReadByte(cctx, 0x10)

		Expect(err).To(MatchError(context.Canceled))
		Expect(r.Stats().Cycles).To(BeZero())
	})

	It("should stop waiting when the context expires", func() {
		build(efb.PeerSpec{StallAfter: 3}, MakeBuilder())

		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := r.ReadByte(tctx, 0x10)

		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(r.Err()).NotTo(HaveOccurred())
	})

	It("should forward hooks to every stage", func() {
		domains := map[string]bool{}
		r.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == ufm.HookPosStateChange {
				domains[ctx.Domain.(sim.Named).Name()] = true
			}
		}))

		_, err := r.ReadByte(ctx, 0x10)
		Expect(err).NotTo(HaveOccurred())

		Expect(domains).To(HaveKey("Reader.Sequencer"))
		Expect(domains).To(HaveKey("Reader.Streamer"))
		Expect(domains).To(HaveKey("Reader.PageBuffer"))
	})
})
