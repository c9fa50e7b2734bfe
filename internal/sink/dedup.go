package sink

import (
	"sync"

	"github.com/ironsheep/tag-tracker/internal/detection"
)

type recordKey struct {
	population string
	unixNano   int64
	id         int
}

func keyOf(r detection.Record) recordKey {
	return recordKey{population: r.Population, unixNano: r.Time.UnixNano(), id: r.TagID}
}

// Dedup forwards the first record of each (population, time, id) to the
// wrapped sink and drops the rest. Merged archives from overlapping runs
// are cleaned this way.
type Dedup struct {
	mu      sync.Mutex
	next    detection.Sink
	seen    map[recordKey]struct{}
	dropped int
}

// NewDedup wraps next.
func NewDedup(next detection.Sink) *Dedup {
	return &Dedup{next: next, seen: make(map[recordKey]struct{})}
}

// Emit forwards r unless an equal key was already forwarded. A record the
// wrapped sink rejects is not remembered.
func (d *Dedup) Emit(r detection.Record) error {
	k := keyOf(r)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[k]; ok {
		d.dropped++
		return nil
	}
	if err := d.next.Emit(r); err != nil {
		return err
	}
	d.seen[k] = struct{}{}
	return nil
}

// Remember marks r's key as already written without forwarding it, so that
// an archive can be extended without repeating rows it holds.
func (d *Dedup) Remember(r detection.Record) {
	d.mu.Lock()
	d.seen[keyOf(r)] = struct{}{}
	d.mu.Unlock()
}

// Dropped returns the number of duplicates discarded so far.
func (d *Dedup) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Collect keeps every record in memory.
type Collect struct {
	mu      sync.Mutex
	records []detection.Record
}

// Emit appends r.
func (c *Collect) Emit(r detection.Record) error {
	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()
	return nil
}

// Records returns a copy of the records in arrival order.
func (c *Collect) Records() []detection.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]detection.Record(nil), c.records...)
}
