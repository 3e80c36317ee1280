package core

// Sample runs the measurement loop on the calling thread until the command
// leaves Go or the buffer fills up. Every gap of at least threshold cycles
// between two consecutive counter reads is appended to buf.
//
// The loop is generic over the counter type so that the hardware counter is
// called directly rather than through an interface. It neither allocates nor
// takes locks: the only shared memory it touches is one atomic load of the
// command per iteration. A gap being measured when Stop arrives is completed
// and recorded before the command is checked again.
func Sample[C Counter](c C, buf *Buffer, threshold uint64, state *RunState) (total uint64, overflowed bool) {
	records := buf.records
	n := buf.n
	limit := len(records)
	if n >= limit {
		return 0, true
	}

	prev := c.Read()
	for state.Command() == Go {
		ts := c.Read()
		diff := ts - prev
		prev = ts
		if diff >= threshold {
			records[n] = Interruption{Timestamp: ts, Gap: diff}
			total += diff
			n++
			if n == limit {
				overflowed = true
				break
			}
		}
	}

	buf.n = n
	return total, overflowed
}
