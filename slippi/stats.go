package slippi

import "sync"

// StatsSnapshot is an immutable point-in-time view of decode counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type StatsSnapshot struct {
	// Stream consumption
	EventsDecoded int64
	EventsSkipped int64
	BytesConsumed int64

	// Recovered anomalies
	MalformedEvents int64
	Rollbacks       int64
	OutOfOrder      int64

	// Terminal condition
	Truncated   bool
	TruncatedAt int64
}

// Collector accumulates decode counters during a single pass over the
// event stream. Thread-safe via sync.Mutex so the CLI can snapshot while a
// decode is in flight; the decode path itself is single-threaded.
type Collector struct {
	mu sync.Mutex

	eventsDecoded   int64
	eventsSkipped   int64
	bytesConsumed   int64
	malformedEvents int64
	rollbacks       int64
	outOfOrder      int64
	truncated       bool
	truncatedAt     int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordEvent counts one fully decoded event.
func (c *Collector) RecordEvent() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventsDecoded++
}

// RecordSkipped counts one event skipped via the size table (no decoder,
// or recovered after a malformed payload).
func (c *Collector) RecordSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventsSkipped++
}

// RecordMalformed counts one non-Start event whose payload failed to
// decode and was skipped.
func (c *Collector) RecordMalformed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.malformedEvents++
}

// RecordRollback counts one frame/port/slot overwritten by a later event
// for the same frame index (netplay rollback rewrite).
func (c *Collector) RecordRollback() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollbacks++
}

// RecordOutOfOrder counts one frame event arriving for an index below the
// highest index already opened.
func (c *Collector) RecordOutOfOrder() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outOfOrder++
}

// SetBytesConsumed records the number of event-stream bytes consumed.
func (c *Collector) SetBytesConsumed(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytesConsumed = n
}

// MarkTruncated records that the stream ended mid-payload at offset.
func (c *Collector) MarkTruncated(offset int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.truncated = true
	c.truncatedAt = offset
}

// Snapshot returns an immutable copy of all counters.
func (c *Collector) Snapshot() StatsSnapshot {
	if c == nil {
		return StatsSnapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return StatsSnapshot{
		EventsDecoded:   c.eventsDecoded,
		EventsSkipped:   c.eventsSkipped,
		BytesConsumed:   c.bytesConsumed,
		MalformedEvents: c.malformedEvents,
		Rollbacks:       c.rollbacks,
		OutOfOrder:      c.outOfOrder,
		Truncated:       c.truncated,
		TruncatedAt:     c.truncatedAt,
	}
}
