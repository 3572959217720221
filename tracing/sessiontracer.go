package tracing

import (
	"github.com/rs/xid"

	"github.com/efbutils/ufmsim/datarecording"
	"github.com/efbutils/ufmsim/protocol"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/ufm/sequencer"
	"github.com/efbutils/ufmsim/ufm/streamer"
)

type sessionRow struct {
	ID         string
	Page       uint16
	StartCycle uint64
	EndCycle   uint64
	Polls      int
	Fail       bool
}

type frameRow struct {
	ID         string
	SessionID  string
	Opcode     string
	StartCycle uint64
	EndCycle   uint64
	DataLen    uint8
}

type openFrame struct {
	id    string
	op    protocol.Opcode
	start sim.VTimeInCycle
}

// SessionTracer records one row per page-fill session and one row per
// frame. Frames outside a session have an empty SessionID.
type SessionTracer struct {
	errLatch

	timeTeller sim.TimeTeller
	recorder   datarecording.DataRecorder

	sessionID    string
	sessionStart sim.VTimeInCycle
	frame        *openFrame
	sessions     int
}

// NewSessionTracer creates the sessions and frames tables.
func NewSessionTracer(
	timeTeller sim.TimeTeller,
	recorder datarecording.DataRecorder,
) (*SessionTracer, error) {
	if err := recorder.CreateTable(TableSessions, sessionRow{}); err != nil {
		return nil, err
	}

	if err := recorder.CreateTable(TableFrames, frameRow{}); err != nil {
		return nil, err
	}

	t := &SessionTracer{
		timeTeller: timeTeller,
		recorder:   recorder,
	}

	return t, nil
}

// Sessions returns the number of completed sessions.
func (t *SessionTracer) Sessions() int {
	return t.sessions
}

// Func follows the session hooks of the streamer and the frame hooks of the
// sequencer.
func (t *SessionTracer) Func(ctx sim.HookCtx) {
	now := t.timeTeller.CurrentTime()

	switch ctx.Pos {
	case streamer.HookPosSessionStart:
		t.sessionID = xid.New().String()
		t.sessionStart = now
	case streamer.HookPosSessionDone:
		info := ctx.Item.(streamer.SessionInfo)
		insert(&t.errLatch, t.recorder, TableSessions, sessionRow{
			ID:         t.sessionID,
			Page:       info.Page,
			StartCycle: uint64(t.sessionStart),
			EndCycle:   uint64(now),
			Polls:      info.Polls,
			Fail:       info.Fail,
		})
		t.sessionID = ""
		t.sessions++
	case sequencer.HookPosFrameStart:
		f := ctx.Item.(protocol.Frame)
		t.frame = &openFrame{id: xid.New().String(), op: f.Opcode, start: now}
	case sequencer.HookPosFrameDone:
		t.endFrame(ctx.Item.(protocol.Frame), now)
	}
}

func (t *SessionTracer) endFrame(f protocol.Frame, now sim.VTimeInCycle) {
	if t.frame == nil {
		return
	}

	insert(&t.errLatch, t.recorder, TableFrames, frameRow{
		ID:         t.frame.id,
		SessionID:  t.sessionID,
		Opcode:     f.Opcode.String(),
		StartCycle: uint64(t.frame.start),
		EndCycle:   uint64(now),
		DataLen:    f.DataLen,
	})
	t.frame = nil
}
