package core

import (
	"fmt"
	"unsafe"
)

// RecordSize is the in-memory size of one Interruption.
const RecordSize = int(unsafe.Sizeof(Interruption{}))

// Buffer is a fixed-capacity, append-only store of interruptions owned by a
// single worker thread. It never grows: a full buffer is an overflow.
type Buffer struct {
	records []Interruption
	n       int
}

// NewBuffer allocates a buffer for capacity records and touches every page so
// that page faults happen now rather than while sampling. Call it on the
// thread that will use the buffer to get memory local to that CPU.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer capacity must be positive, got %d", capacity)
	}
	b := &Buffer{records: make([]Interruption, capacity)}
	for i := range b.records {
		b.records[i] = Interruption{}
	}
	return b, nil
}

// Append stores one record and reports whether the buffer is now full.
// Appending to a full buffer panics.
func (b *Buffer) Append(ts, gap uint64) (full bool) {
	b.records[b.n] = Interruption{Timestamp: ts, Gap: gap}
	b.n++
	return b.n == len(b.records)
}

// Len returns the number of stored records.
func (b *Buffer) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.records) }

// Full reports whether no further record fits.
func (b *Buffer) Full() bool { return b.n == len(b.records) }

// Records returns the stored records in insertion order. The slice aliases
// the buffer and must be treated as read-only.
func (b *Buffer) Records() []Interruption { return b.records[:b.n:b.n] }
