// Package mux splits a single-wire byte stream carrying both bus directions
// into per-channel runs. Each byte's top bit selects the channel; one
// reserved byte value marks a resynchronization event and carries no data.
package mux

import (
	"time"

	"SerialScope/internal/core/model"
)

const (
	// TagBit marks a byte as node-channel data; controller bytes have it
	// clear. The bit is packing metadata and is stripped before emit.
	TagBit = 0x80

	// Marker is the resynchronization byte. It is never emitted as payload.
	// The monitored protocol is 7-bit, so Marker cannot collide with a
	// tagged data byte.
	Marker = 0xFF
)

// Event is one completed same-channel run from the muxed stream.
type Event = model.Event

// Demux is the demultiplexer state machine. It holds at most one open run;
// feed chunks with Feed and collect the final partial run with Flush.
type Demux struct {
	open    bool
	current model.Channel
	run     []byte
	started time.Time
	resyncs uint64
}

// New returns an empty demultiplexer.
func New() *Demux {
	return &Demux{}
}

// Feed scans one incoming chunk and returns the runs completed by it, in
// order. A channel change closes the current run; marker bytes are dropped
// and counted without affecting the run in progress. ts stamps any run that
// the chunk opens.
func (d *Demux) Feed(chunk []byte, ts time.Time) []Event {
	var out []Event
	for _, b := range chunk {
		if b == Marker {
			d.resyncs++
			continue
		}
		ch := model.ChannelCtrl
		if b&TagBit != 0 {
			ch = model.ChannelNode
		}
		if d.open && ch != d.current {
			out = append(out, d.close())
		}
		if !d.open {
			d.open = true
			d.current = ch
			d.started = ts
		}
		d.run = append(d.run, b&^byte(TagBit))
	}
	return out
}

// Flush closes and returns the open run, if any. Used at end of stream and
// on session shutdown.
func (d *Demux) Flush() (Event, bool) {
	if !d.open {
		return Event{}, false
	}
	return d.close(), true
}

func (d *Demux) close() Event {
	ev := Event{
		Channel:   d.current,
		Data:      d.run,
		Timestamp: d.started,
	}
	d.open = false
	d.run = nil
	return ev
}

// Resyncs returns the number of marker bytes observed.
func (d *Demux) Resyncs() uint64 {
	return d.resyncs
}
