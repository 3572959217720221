// Package tracing collects what happens inside a reader stack: bus
// transactions, page-fill sessions, frames and cache events. Tracers are
// hooks; attach them with the AcceptHook method of the reader.
package tracing

import (
	"sync"

	"github.com/efbutils/ufmsim/datarecording"
)

// Table names used by the tracers.
const (
	TableBusTransactions = "bus_transactions"
	TableSessions        = "sessions"
	TableFrames          = "frames"
)

// errLatch keeps the first error a tracer met. Hooks cannot return errors.
type errLatch struct {
	lock sync.Mutex
	err  error
}

func (l *errLatch) set(err error) {
	if err == nil {
		return
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	if l.err == nil {
		l.err = err
	}
}

// Err returns the first error met while recording.
func (l *errLatch) Err() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.err
}

func insert(l *errLatch, r datarecording.DataRecorder, table string, row any) {
	l.set(r.InsertData(table, row))
}
