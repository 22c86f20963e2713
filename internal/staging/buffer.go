// Package staging provides the fixed-capacity byte buffer that sits between
// a hardware read context and its single consumer task.
package staging

// Buffer is a fixed-capacity byte buffer with a read cursor. It never
// allocates after construction and never blocks: when an append does not fit
// even after compaction, the oldest unconsumed bytes are dropped, but only as
// many as needed. That silent truncation is the capacity contract for a
// buffer filled from an unblockable context, not an error; dropped bytes are
// counted for diagnostics.
//
// A Buffer must have exactly one writer and one reader that never run
// concurrently; it is safe by ownership, not by locking.
type Buffer struct {
	data    []byte
	readPos int
	length  int
	dropped uint64
}

// New returns a Buffer of the given fixed capacity. Capacity should be sized
// to the protocol's largest single frame, on the order of tens of bytes.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{data: make([]byte, capacity)}
}

// TailSlice returns a writable slice of at least minCap free bytes at the
// tail, compacting first and dropping the oldest unconsumed bytes only if
// total free space is still short. minCap is clamped to the capacity.
func (b *Buffer) TailSlice(minCap int) []byte {
	if minCap > len(b.data) {
		minCap = len(b.data)
	}
	if b.length == 0 {
		b.readPos = 0
	}
	tailCap := len(b.data) - (b.readPos + b.length)
	spareCap := tailCap + b.readPos
	if spareCap < minCap {
		b.drop(minCap - spareCap)
	}
	if tailCap < minCap {
		copy(b.data, b.data[b.readPos:b.readPos+b.length])
		b.readPos = 0
	}
	return b.data[b.readPos+b.length:]
}

// GrowLen marks n bytes of the most recent TailSlice as filled.
func (b *Buffer) GrowLen(n int) {
	b.length += n
}

// Append copies p into the buffer. If p is longer than the capacity only its
// trailing bytes are kept; the rest counts as dropped.
func (b *Buffer) Append(p []byte) {
	if len(p) > len(b.data) {
		excess := len(p) - len(b.data)
		b.dropped += uint64(excess)
		p = p[excess:]
	}
	tail := b.TailSlice(len(p))
	copy(tail[:len(p)], p)
	b.GrowLen(len(p))
}

// Consume advances the read cursor by min(n, Len()).
func (b *Buffer) Consume(n int) {
	if n > b.length {
		n = b.length
	}
	b.readPos += n
	b.length -= n
}

// drop discards the n oldest unconsumed bytes and counts them.
func (b *Buffer) drop(n int) {
	if n > b.length {
		n = b.length
	}
	b.dropped += uint64(n)
	b.Consume(n)
}

// Bytes returns the unconsumed content without copying. The slice is only
// valid until the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.data[b.readPos : b.readPos+b.length]
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int { return b.length }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Dropped returns the total number of bytes lost to the truncation policy.
func (b *Buffer) Dropped() uint64 { return b.dropped }
