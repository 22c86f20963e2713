package recorder

import "SerialScope/internal/core/model"

// Queue is an unbounded, ordered, multi-producer/single-consumer event
// queue. Producers never block behind the consumer's file I/O; memory grows
// without bound if the consumer stalls, which is an accepted trade-off for
// short diagnostic sessions.
type Queue struct {
	in  chan model.Event
	out chan model.Event
}

// NewQueue creates the queue and starts its pump goroutine.
func NewQueue() *Queue {
	q := &Queue{
		in:  make(chan model.Event),
		out: make(chan model.Event),
	}
	go q.pump()
	return q
}

// pump moves events from in to out through an elastic backlog, preserving
// arrival order. When in closes, the backlog is drained and out is closed.
func (q *Queue) pump() {
	var backlog []model.Event
	for {
		if len(backlog) == 0 {
			ev, ok := <-q.in
			if !ok {
				close(q.out)
				return
			}
			backlog = append(backlog, ev)
			continue
		}
		select {
		case ev, ok := <-q.in:
			if !ok {
				for _, ev := range backlog {
					q.out <- ev
				}
				close(q.out)
				return
			}
			backlog = append(backlog, ev)
		case q.out <- backlog[0]:
			backlog = backlog[1:]
		}
	}
}

// Push enqueues one event. It may be called from multiple producers; events
// from a single producer keep their submission order.
func (q *Queue) Push(ev model.Event) {
	q.in <- ev
}

// Events returns the consumer side. The channel is closed once Close has
// been called and the backlog fully drained.
func (q *Queue) Events() <-chan model.Event {
	return q.out
}

// Close signals end of stream. No Push may follow.
func (q *Queue) Close() {
	close(q.in)
}
