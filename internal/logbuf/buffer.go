package logbuf

import "time"

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 1000

// Change describes one append. Evicted is nil unless the buffer was full.
type Change struct {
	Inserted Record
	Evicted  *Record
}

// Observer is told about every mutation so a renderer can update
// incrementally instead of redrawing everything.
type Observer interface {
	RecordAppended(Change)
	Cleared()
}

// Buffer is a fixed-capacity, insertion-ordered ring of records. When full,
// an append evicts the oldest record in the same step.
//
// Buffer has no lock: it is owned by a single writer.
type Buffer struct {
	ring     []Record
	head     int // index of the oldest record
	size     int
	observer Observer
	now      func() time.Time
}

// New creates a buffer holding at most capacity records.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		ring: make([]Record, capacity),
		now:  time.Now,
	}
}

// SetObserver registers the single observer. Passing nil removes it.
func (b *Buffer) SetObserver(o Observer) {
	b.observer = o
}

// Capacity returns the maximum number of records held.
func (b *Buffer) Capacity() int {
	return len(b.ring)
}

// Len returns the number of records currently held.
func (b *Buffer) Len() int {
	return b.size
}

// Append inserts r as the newest record. It never blocks and never fails.
func (b *Buffer) Append(r Record) Change {
	c := Change{Inserted: r}
	capacity := len(b.ring)

	if b.size == capacity {
		evicted := b.ring[b.head]
		c.Evicted = &evicted
		b.ring[b.head] = r
		b.head = (b.head + 1) % capacity
	} else {
		b.ring[(b.head+b.size)%capacity] = r
		b.size++
	}

	if b.observer != nil {
		b.observer.RecordAppended(c)
	}
	return c
}

// Log creates a record stamped with the current time and appends it.
func (b *Buffer) Log(level Level, message string) Change {
	return b.Append(NewRecord(level, message, b.now()))
}

// Clear drops every record and then appends a single notice recording the
// clear.
func (b *Buffer) Clear() {
	for i := range b.ring {
		b.ring[i] = Record{}
	}
	b.head = 0
	b.size = 0

	if b.observer != nil {
		b.observer.Cleared()
	}
	b.Log(LevelInfo, "logs cleared")
}

// Records returns a copy of the contents, oldest first.
func (b *Buffer) Records() []Record {
	out := make([]Record, b.size)
	capacity := len(b.ring)
	for i := 0; i < b.size; i++ {
		out[i] = b.ring[(b.head+i)%capacity]
	}
	return out
}
