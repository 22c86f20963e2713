// Package source runs the producer tasks that feed the recorder: one task
// per physical UART, or a single task for a tag-muxed wire. Each task reads
// through a fixed staging buffer and pushes timestamped events onto the
// shared queue, so a time-sensitive read never waits on file I/O.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"SerialScope/internal/core/model"
	"SerialScope/internal/mux"
	"SerialScope/internal/recorder"
	"SerialScope/internal/staging"
	"SerialScope/internal/stats"
)

// ErrSourceClosed reports a zero-length read: the physical source has gone
// away, distinct from a transient read error.
var ErrSourceClosed = errors.New("source closed")

// minRead is the smallest tail slice requested from the staging buffer per
// read, a fraction of the capacity so the drop-oldest path stays rare.
const minRead = 8

// UART is a producer for one physical wire carrying a single channel.
type UART struct {
	name    string
	r       io.Reader
	ch      model.Channel
	buf     *staging.Buffer
	session *stats.Session
}

// NewUART wraps an opened port. stagingCap sizes the staging buffer.
func NewUART(name string, r io.Reader, ch model.Channel, stagingCap int, session *stats.Session) *UART {
	return &UART{
		name:    name,
		r:       r,
		ch:      ch,
		buf:     staging.New(stagingCap),
		session: session,
	}
}

// Run reads until the context is cancelled or the source fails. Each
// successful read becomes one event tagged with the UART's channel.
func (u *UART) Run(ctx context.Context, q *recorder.Queue) error {
	for {
		data, ts, err := readChunk(u.r, u.buf)
		if len(data) > 0 {
			u.session.SetStagingDropped(u.ch, u.buf.Dropped())
			q.Push(model.Event{Channel: u.ch, Data: data, Timestamp: ts})
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s: %w", u.name, err)
		}
	}
}

// Mux is a producer for a single wire carrying both channels, tag-encoded
// per byte.
type Mux struct {
	name    string
	r       io.Reader
	buf     *staging.Buffer
	demux   *mux.Demux
	session *stats.Session
}

// NewMux wraps an opened muxed port.
func NewMux(name string, r io.Reader, stagingCap int, session *stats.Session) *Mux {
	return &Mux{
		name:    name,
		r:       r,
		buf:     staging.New(stagingCap),
		demux:   mux.New(),
		session: session,
	}
}

// Run reads the muxed stream, splits it into per-channel runs and pushes
// them as events. The partial run in flight is pushed before returning so
// shutdown never loses tail bytes.
func (m *Mux) Run(ctx context.Context, q *recorder.Queue) error {
	defer func() {
		if ev, ok := m.demux.Flush(); ok {
			q.Push(ev)
		}
		m.session.SetResyncs(m.demux.Resyncs())
	}()
	for {
		data, ts, err := readChunk(m.r, m.buf)
		if len(data) > 0 {
			for _, ev := range m.demux.Feed(data, ts) {
				q.Push(ev)
			}
			m.session.SetResyncs(m.demux.Resyncs())
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
}

// readChunk performs one read through the staging buffer and returns a copy
// of everything staged, stamped at receipt. Bytes delivered together with a
// read error are still returned, so a closing port's final chunk is not
// lost. A zero-length read with no error reports ErrSourceClosed.
func readChunk(r io.Reader, buf *staging.Buffer) ([]byte, time.Time, error) {
	tail := buf.TailSlice(minRead)
	n, err := r.Read(tail)
	ts := time.Now()

	var data []byte
	if n > 0 {
		buf.GrowLen(n)
		data = make([]byte, buf.Len())
		copy(data, buf.Bytes())
		buf.Consume(len(data))
	}
	if err == nil && n == 0 {
		err = ErrSourceClosed
	}
	return data, ts, err
}
