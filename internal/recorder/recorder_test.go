package recorder

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"SerialScope/internal/core/model"
)

// fakeWriter captures flushed records in memory.
type fakeWriter struct {
	recs []model.Record
	err  error
}

func (f *fakeWriter) WriteRecord(ch model.Channel, data []byte, ts time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, model.Record{
		Channel:   ch,
		Payload:   append([]byte(nil), data...),
		Timestamp: ts,
	})
	return nil
}

func run(t *testing.T, w RecordWriter, window time.Duration, feed func(q *Queue)) error {
	t.Helper()
	q := NewQueue()
	done := make(chan error, 1)
	go func() {
		done <- New(w, window).Run(q)
	}()
	feed(q)
	q.Close()
	return <-done
}

func TestRecorder_ChannelSwitchFlush(t *testing.T) {
	w := &fakeWriter{}
	err := run(t, w, time.Second, func(q *Queue) {
		ts := time.Now()
		q.Push(model.Event{Channel: model.ChannelCtrl, Data: []byte("ab"), Timestamp: ts})
		q.Push(model.Event{Channel: model.ChannelCtrl, Data: []byte("c"), Timestamp: ts})
		q.Push(model.Event{Channel: model.ChannelNode, Data: []byte("d"), Timestamp: ts})
		q.Push(model.Event{Channel: model.ChannelCtrl, Data: []byte("e"), Timestamp: ts})
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []struct {
		ch   model.Channel
		data string
	}{
		{model.ChannelCtrl, "abc"},
		{model.ChannelNode, "d"},
		{model.ChannelCtrl, "e"},
	}
	if len(w.recs) != len(want) {
		t.Fatalf("Expected %d records, got %d: %+v", len(want), len(w.recs), w.recs)
	}
	for i, wr := range want {
		if w.recs[i].Channel != wr.ch || !bytes.Equal(w.recs[i].Payload, []byte(wr.data)) {
			t.Errorf("Record %d: got (%s, %q), want (%s, %q)",
				i, w.recs[i].Channel, w.recs[i].Payload, wr.ch, wr.data)
		}
	}
}

func TestRecorder_TimeoutFlush(t *testing.T) {
	w := &fakeWriter{}
	err := run(t, w, 30*time.Millisecond, func(q *Queue) {
		q.Push(model.Event{Channel: model.ChannelCtrl, Data: []byte("ab"), Timestamp: time.Now()})
		// Same channel, but the silence exceeds the window: a record
		// boundary must appear where channel turnaround alone would not
		// produce one.
		time.Sleep(120 * time.Millisecond)
		q.Push(model.Event{Channel: model.ChannelCtrl, Data: []byte("cd"), Timestamp: time.Now()})
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(w.recs) != 2 {
		t.Fatalf("Expected 2 records split by the inactivity window, got %d", len(w.recs))
	}
	if !bytes.Equal(w.recs[0].Payload, []byte("ab")) || !bytes.Equal(w.recs[1].Payload, []byte("cd")) {
		t.Fatalf("Unexpected record payloads: %q, %q", w.recs[0].Payload, w.recs[1].Payload)
	}
}

func TestRecorder_FinalRunFlushedOnClose(t *testing.T) {
	w := &fakeWriter{}
	err := run(t, w, time.Second, func(q *Queue) {
		q.Push(model.Event{Channel: model.ChannelNode, Data: []byte{0x06}, Timestamp: time.Now()})
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(w.recs) != 1 || !bytes.Equal(w.recs[0].Payload, []byte{0x06}) {
		t.Fatalf("Final run not flushed on close: %+v", w.recs)
	}
}

func TestRecorder_EmptyEventsIgnored(t *testing.T) {
	w := &fakeWriter{}
	err := run(t, w, time.Second, func(q *Queue) {
		q.Push(model.Event{Channel: model.ChannelCtrl, Data: nil, Timestamp: time.Now()})
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(w.recs) != 0 {
		t.Fatalf("Expected no records for empty events, got %d", len(w.recs))
	}
}

func TestRecorder_WriteErrorIsFatal(t *testing.T) {
	wantErr := errors.New("disk full")
	w := &fakeWriter{err: wantErr}
	err := run(t, w, time.Second, func(q *Queue) {
		q.Push(model.Event{Channel: model.ChannelCtrl, Data: []byte("x"), Timestamp: time.Now()})
		q.Push(model.Event{Channel: model.ChannelNode, Data: []byte("y"), Timestamp: time.Now()})
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected write error to propagate, got %v", err)
	}
}
