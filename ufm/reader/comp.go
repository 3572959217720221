// Package reader exposes the UFM as a random-access byte port. It owns the
// page buffer, the streamer and the sequencer, and ticks them together on
// the register bus clock.
package reader

import (
	"context"
	"fmt"
	"sync"

	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/sim/state"
	"github.com/efbutils/ufmsim/ufm"
	"github.com/efbutils/ufmsim/ufm/pagebuffer"
	"github.com/efbutils/ufmsim/ufm/sequencer"
	"github.com/efbutils/ufmsim/ufm/streamer"
	"github.com/efbutils/ufmsim/wishbone"
)

// Hook positions of the reader.
var (
	// HookPosBusTransaction fires for every acknowledged bus access. The
	// item is a wishbone.Transaction.
	HookPosBusTransaction = &sim.HookPos{Name: "BusTransaction"}

	// HookPosRequestDone fires when a submitted request completes. The item
	// is a RequestInfo.
	HookPosRequestDone = &sim.HookPos{Name: "RequestDone"}
)

// RequestInfo describes a completed request.
type RequestInfo struct {
	Addr  uint16
	Data  byte
	Start sim.VTimeInCycle
	End   sim.VTimeInCycle
	Hit   bool
}

// Latency returns the number of cycles between the first cycle the request
// was on the port and the cycle its data was valid.
func (r RequestInfo) Latency() uint64 {
	return uint64(r.End - r.Start)
}

// Stats summarizes the activity of a reader.
type Stats struct {
	Cycles          uint64
	Requests        uint64
	Hits            uint64
	Misses          uint64
	Sessions        uint64
	BusTransactions uint64
	Violations      int
}

type request struct {
	addr   uint16
	cb     func(byte, error)
	issued bool
	start  sim.VTimeInCycle
	missed bool
}

// Comp is the reader.
type Comp struct {
	*sim.TickingComponent

	Spec Spec

	Seq      *sequencer.Comp
	Streamer *streamer.Comp
	Pages    *pagebuffer.Comp

	bus     wishbone.Slave
	regs    *state.Manager
	monitor wishbone.Monitor

	port   ufm.ReadRequest
	flush  bool
	result ufm.ReadResult
	queue  []*request
	stats  Stats
	err    error

	interruptLock sync.Mutex
	interrupt     error
}

// AcceptHook registers the hook with the reader and with every stage of the
// stack.
func (c *Comp) AcceptHook(hook sim.Hook) {
	c.TickingComponent.AcceptHook(hook)
	c.Seq.AcceptHook(hook)
	c.Streamer.AcceptHook(hook)
	c.Pages.AcceptHook(hook)
}

// Registers returns the registers of the stack.
func (c *Comp) Registers() *state.Manager {
	return c.regs
}

// Err returns the fault that stopped the reader, if any.
func (c *Comp) Err() error {
	return c.err
}

// Stats returns the counters of the reader.
func (c *Comp) Stats() Stats {
	s := c.stats
	s.Violations = c.monitor.Violations()

	return s
}

// SetRequest drives the upward port directly. It is used when no request is
// queued.
func (c *Comp) SetRequest(addr uint16, readEn bool) {
	c.port = ufm.ReadRequest{Addr: addr, ReadEn: readEn}
	c.TickLater()
}

// Invalidate drops the cached page. During a fill the invalidation waits
// until the page is complete, so the following read fills again.
func (c *Comp) Invalidate() {
	c.flush = true
	c.TickLater()
}

// Result returns the data and valid lines of the upward port. They answer
// the request of the previous cycle.
func (c *Comp) Result() ufm.ReadResult {
	return c.Pages.Result()
}

// Submit queues a read of one byte. The callback runs from the tick that
// completes the request.
func (c *Comp) Submit(addr uint16, cb func(byte, error)) error {
	if c.err != nil {
		return c.err
	}

	if addr > protocol.MaxAddr {
		return fmt.Errorf("%w: 0x%X", ErrAddressOutOfRange, addr)
	}

	if len(c.queue) >= c.Spec.QueueSize {
		return ErrQueueFull
	}

	c.queue = append(c.queue, &request{addr: addr, cb: cb})
	c.stats.Requests++
	c.TickLater()

	return nil
}

// ReadByte reads one byte and runs the engine until the byte is available.
func (c *Comp) ReadByte(ctx context.Context, addr uint16) (byte, error) {
	var (
		data   byte
		reqErr error
	)

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	err := c.Submit(addr, func(b byte, err error) {
		data, reqErr = b, err
	})
	if err != nil {
		return 0, err
	}

	if err := c.run(ctx); err != nil {
		return 0, err
	}

	return data, reqErr
}

// ReadAt reads len(p) bytes starting at off. It returns the number of bytes
// read and the first error met.
func (c *Comp) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > protocol.MaxAddr+1 {
		return 0, fmt.Errorf("%w: [0x%X, 0x%X)",
			ErrAddressOutOfRange, off, off+int64(len(p)))
	}

	n := 0
	for n < len(p) {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		chunk := min(len(p)-n, c.Spec.QueueSize-len(c.queue))
		if chunk <= 0 {
			return n, ErrQueueFull
		}

		got := 0

		var reqErr error
		for i := 0; i < chunk; i++ {
			err := c.Submit(uint16(off)+uint16(n+i), func(b byte, err error) {
				if err != nil {
					if reqErr == nil {
						reqErr = err
					}

					return
				}

				p[n+i] = b
				got++
			})
			if err != nil {
				c.dropLast(i)
				return n, err
			}
		}

		if err := c.run(ctx); err != nil {
			return n + got, err
		}

		n += got
		if reqErr != nil {
			return n, reqErr
		}
	}

	return n, nil
}

// dropLast removes the n most recently queued requests. They must not have
// been issued yet.
func (c *Comp) dropLast(n int) {
	c.queue = c.queue[:len(c.queue)-n]
	c.stats.Requests -= uint64(n)
}

func (c *Comp) run(ctx context.Context) error {
	c.setInterrupt(nil)

	stop := context.AfterFunc(ctx, func() {
		c.setInterrupt(ctx.Err())
	})
	defer stop()

	return c.Engine.Run()
}

func (c *Comp) setInterrupt(err error) {
	c.interruptLock.Lock()
	c.interrupt = err
	c.interruptLock.Unlock()
}

func (c *Comp) takeInterrupt() error {
	c.interruptLock.Lock()
	defer c.interruptLock.Unlock()

	err := c.interrupt
	c.interrupt = nil

	return err
}

// Tick advances the whole stack by one cycle.
func (c *Comp) Tick() bool {
	if c.err != nil {
		return false
	}

	if err := c.takeInterrupt(); err != nil {
		c.failQueue(err)
		return false
	}

	now := c.CurrentTime()

	c.result = c.Pages.Result()
	c.completeHead(now)

	req := c.port
	if len(c.queue) > 0 {
		head := c.queue[0]
		if !head.issued {
			head.issued = true
			head.start = now
		}

		req = ufm.ReadRequest{Addr: head.addr, ReadEn: true}
	}

	switch c.Pages.State().FSM {
	case pagebuffer.StateValid:
		req.Flush = c.flush
		c.flush = false
	case pagebuffer.StateInit:
		c.flush = false
	}

	ctl := c.Streamer.Control()
	bus := c.Seq.Bus()
	rsp := c.bus.Respond(bus)
	status := c.Seq.Status()
	fill := c.Streamer.Fill(status)
	fillReq := c.Pages.FillRequest()

	if txn, ok := c.monitor.Observe(now, bus, rsp); ok {
		c.stats.BusTransactions++
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosBusTransaction,
			Item:   txn,
		})
	}

	c.Seq.Step(ctl, rsp)
	c.Streamer.Step(fillReq, status)
	c.Pages.Step(req, fill)
	c.bus.Clock(bus)
	c.regs.CommitAll()
	c.stats.Cycles++

	if err := c.Seq.Err(); err != nil {
		c.err = err
		c.failQueue(err)

		return false
	}

	return len(c.queue) > 0 || c.flush || !c.quiet() ||
		(c.port.ReadEn && !c.result.Valid)
}

func (c *Comp) quiet() bool {
	return c.Streamer.Ready() &&
		c.Seq.Status().Idle &&
		!c.Pages.FillRequest().Stb
}

func (c *Comp) completeHead(now sim.VTimeInCycle) {
	if len(c.queue) == 0 || !c.queue[0].issued || !c.result.Valid {
		return
	}

	head := c.queue[0]
	c.queue = c.queue[1:]

	if !head.missed {
		c.stats.Hits++
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosRequestDone,
		Item: RequestInfo{
			Addr:  head.addr,
			Data:  c.result.Data,
			Start: head.start,
			End:   now,
			Hit:   !head.missed,
		},
	})

	if head.cb != nil {
		head.cb(c.result.Data, nil)
	}
}

func (c *Comp) failQueue(err error) {
	queue := c.queue
	c.queue = nil

	for _, r := range queue {
		if r.cb != nil {
			r.cb(0, err)
		}
	}
}

func (c *Comp) countCache(ctx sim.HookCtx) {
	if ctx.Pos != pagebuffer.HookPosMiss {
		return
	}

	c.stats.Misses++
	if len(c.queue) > 0 {
		c.queue[0].missed = true
	}
}

func (c *Comp) countSessions(ctx sim.HookCtx) {
	if ctx.Pos == streamer.HookPosSessionStart {
		c.stats.Sessions++
	}
}
