// Package recorder turns the stream of channel-tagged byte events into
// capture records. Packet boundaries on the wire are not self-delimiting, so
// record boundaries are inferred from channel turnaround and from silence.
package recorder

import (
	"log"
	"time"

	"SerialScope/internal/core/model"
	"SerialScope/internal/stats"
)

// RecordWriter is the destination for flushed runs. *capture.Writer
// satisfies it.
type RecordWriter interface {
	WriteRecord(ch model.Channel, data []byte, ts time.Time) error
}

// RecordSink mirrors flushed records to a secondary destination, such as a
// live NATS publisher. Sink failures are logged, never fatal.
type RecordSink interface {
	Publish(rec model.Record) error
}

// Recorder coalesces same-channel events into runs and flushes a run when
// the channel turns around, when no event arrives within the inactivity
// window, or at end of stream.
type Recorder struct {
	// Sink, if set, receives a copy of every flushed record.
	Sink RecordSink
	// Session, if set, is updated with flush counters.
	Session *stats.Session

	w      RecordWriter
	window time.Duration
}

// New returns a Recorder writing to w. window bounds how long an open run
// may wait for its next event before being flushed as-is.
func New(w RecordWriter, window time.Duration) *Recorder {
	return &Recorder{w: w, window: window}
}

// Run consumes the queue until it is closed, then flushes the final open run
// and returns nil. A write error is fatal: Run returns it immediately and
// the session must stop.
func (r *Recorder) Run(q *Queue) error {
	var (
		open    bool
		current model.Channel
		run     []byte
		started time.Time
	)

	timer := time.NewTimer(r.window)
	if !timer.Stop() {
		<-timer.C
	}

	flush := func() error {
		if !open {
			return nil
		}
		open = false
		data := run
		run = nil
		if err := r.w.WriteRecord(current, data, started); err != nil {
			return err
		}
		r.Session.RecordFlushed(current, len(data))
		if r.Sink != nil {
			rec := model.Record{Channel: current, Payload: data, Timestamp: started}
			if err := r.Sink.Publish(rec); err != nil {
				log.Printf("Failed to publish record: %v", err)
			}
		}
		return nil
	}

	for {
		select {
		case ev, ok := <-q.Events():
			if !ok {
				return flush()
			}
			if len(ev.Data) == 0 {
				continue
			}
			if open && ev.Channel != current {
				if err := flush(); err != nil {
					return err
				}
			}
			if !open {
				open = true
				current = ev.Channel
				started = ev.Timestamp
			}
			run = append(run, ev.Data...)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(r.window)

		case <-timer.C:
			if err := flush(); err != nil {
				return err
			}
		}
	}
}
