package tracing

import (
	"github.com/efbutils/ufmsim/datarecording"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/ufm/reader"
	"github.com/efbutils/ufmsim/wishbone"
)

type busRow struct {
	StartCycle uint64
	EndCycle   uint64
	Write      bool
	Addr       uint8
	Data       uint8
	Wait       uint64
}

// BusTracer records every acknowledged register access.
type BusTracer struct {
	errLatch

	recorder datarecording.DataRecorder
	count    uint64
}

// NewBusTracer creates the bus_transactions table and returns a tracer that
// fills it.
func NewBusTracer(recorder datarecording.DataRecorder) (*BusTracer, error) {
	if err := recorder.CreateTable(TableBusTransactions, busRow{}); err != nil {
		return nil, err
	}

	return &BusTracer{recorder: recorder}, nil
}

// Count returns the number of recorded transactions.
func (t *BusTracer) Count() uint64 {
	return t.count
}

// Func records the transaction carried by a bus transaction hook.
func (t *BusTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != reader.HookPosBusTransaction {
		return
	}

	txn := ctx.Item.(wishbone.Transaction)
	t.count++

	insert(&t.errLatch, t.recorder, TableBusTransactions, busRow{
		StartCycle: uint64(txn.Start),
		EndCycle:   uint64(txn.End),
		Write:      txn.Write,
		Addr:       txn.Addr,
		Data:       txn.Data,
		Wait:       txn.Wait(),
	})
}
