package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"SerialScope/internal/core/model"
	"SerialScope/internal/recorder"
)

// stuckWriter fails every write, standing in for a full disk.
type stuckWriter struct{ err error }

func (w *stuckWriter) WriteRecord(ch model.Channel, data []byte, ts time.Time) error {
	return w.err
}

// blockedProducer pushes one event and then waits for cancellation, like a
// serial read on a wire that has gone quiet.
type blockedProducer struct{}

func (p *blockedProducer) Run(ctx context.Context, q *recorder.Queue) error {
	q.Push(model.Event{Channel: model.ChannelCtrl, Data: []byte("x"), Timestamp: time.Now()})
	<-ctx.Done()
	return ctx.Err()
}

func TestDrive_WriteErrorCancelsProducers(t *testing.T) {
	wantErr := errors.New("disk full")
	rec := recorder.New(&stuckWriter{err: wantErr}, 10*time.Millisecond)
	q := recorder.NewQueue()

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	p := &blockedProducer{}
	g.Go(func() error { return p.Run(ctx, q) })

	type result struct{ producerErr, writeErr error }
	done := make(chan result, 1)
	go func() {
		producerErr, writeErr := drive(cancel, g, rec, q)
		done <- result{producerErr, writeErr}
	}()

	select {
	case res := <-done:
		if !errors.Is(res.writeErr, wantErr) {
			t.Fatalf("Expected the write error, got %v", res.writeErr)
		}
		if !errors.Is(res.producerErr, context.Canceled) {
			t.Fatalf("Expected the producer to be cancelled, got %v", res.producerErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Session did not shut down after the write error")
	}
}

func TestDrive_CleanShutdown(t *testing.T) {
	w := &stuckWriter{}
	rec := recorder.New(w, time.Second)
	q := recorder.NewQueue()

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	p := &blockedProducer{}
	g.Go(func() error { return p.Run(ctx, q) })

	// Operator stop: the producers are cancelled first, then the queue
	// drains.
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	producerErr, writeErr := drive(cancel, g, rec, q)
	if !errors.Is(producerErr, context.Canceled) {
		t.Fatalf("Expected context.Canceled from the producer, got %v", producerErr)
	}
	if writeErr != nil {
		t.Fatalf("Expected a clean consumer exit, got %v", writeErr)
	}
}
