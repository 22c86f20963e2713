// Package stats tracks per-session capture counters and serves them over a
// small HTTP API for live diagnostics.
package stats

import (
	"sync/atomic"
	"time"

	"SerialScope/internal/core/model"
)

// Session holds the live counters for one capture session. All methods are
// safe for concurrent use; a nil *Session is a valid no-op sink.
type Session struct {
	started time.Time

	records   atomic.Uint64
	bytesCtrl atomic.Uint64
	bytesNode atomic.Uint64

	droppedCtrl atomic.Uint64
	droppedNode atomic.Uint64
	resyncs     atomic.Uint64
}

// NewSession starts a counter set stamped with the session start time.
func NewSession() *Session {
	return &Session{started: time.Now()}
}

// RecordFlushed counts one flushed record of n payload bytes.
func (s *Session) RecordFlushed(ch model.Channel, n int) {
	if s == nil {
		return
	}
	s.records.Add(1)
	if ch == model.ChannelCtrl {
		s.bytesCtrl.Add(uint64(n))
	} else {
		s.bytesNode.Add(uint64(n))
	}
}

// SetStagingDropped publishes the cumulative staging-buffer drop count for
// one channel's source.
func (s *Session) SetStagingDropped(ch model.Channel, n uint64) {
	if s == nil {
		return
	}
	if ch == model.ChannelCtrl {
		s.droppedCtrl.Store(n)
	} else {
		s.droppedNode.Store(n)
	}
}

// SetResyncs publishes the cumulative resynchronization marker count from
// the mux demultiplexer.
func (s *Session) SetResyncs(n uint64) {
	if s == nil {
		return
	}
	s.resyncs.Store(n)
}

// Summary is the JSON shape served by the stats API.
type Summary struct {
	StartedAt          string `json:"started_at"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	Records            uint64 `json:"records"`
	BytesCtrl          uint64 `json:"bytes_ctrl"`
	BytesNode          uint64 `json:"bytes_node"`
	StagingDroppedCtrl uint64 `json:"staging_dropped_ctrl"`
	StagingDroppedNode uint64 `json:"staging_dropped_node"`
	Resyncs            uint64 `json:"resyncs"`
}

// Snapshot returns a point-in-time copy of the counters.
func (s *Session) Snapshot() Summary {
	if s == nil {
		return Summary{}
	}
	return Summary{
		StartedAt:          s.started.UTC().Format(time.RFC3339),
		UptimeSeconds:      int64(time.Since(s.started).Seconds()),
		Records:            s.records.Load(),
		BytesCtrl:          s.bytesCtrl.Load(),
		BytesNode:          s.bytesNode.Load(),
		StagingDroppedCtrl: s.droppedCtrl.Load(),
		StagingDroppedNode: s.droppedNode.Load(),
		Resyncs:            s.resyncs.Load(),
	}
}
