package lof

import (
	"fmt"
	"math"

	"github.com/patrikhermansson/olof/store"
)

// LOFEntry aggregates, per object, the two sums its LOF value is derived
// from: Sum1 is the sum of the object's own reachability distances, Sum2[i]
// is the sum of the reachability distances of its i-th neighbor's list.
type LOFEntry struct {
	Sum1 float64
	Sum2 []float64
}

// clone returns an independent copy of the entry.
func (e LOFEntry) clone() LOFEntry {
	sum2 := make([]float64, len(e.Sum2))
	copy(sum2, e.Sum2)
	return LOFEntry{Sum1: e.Sum1, Sum2: sum2}
}

// LOFTable holds one LOFEntry per object. Entries are created once and
// updated in place through differential sum updates; the table never deletes
// an object.
type LOFTable struct {
	minPts  int
	entries *store.Store[LOFEntry]
}

// NewLOFTable creates an empty LOF table for the given options.
func NewLOFTable(opts Options) (*LOFTable, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	// One scalar plus a minPts-length vector, 8 bytes each.
	entries, err := store.New[LOFEntry](opts.PageSize, opts.CacheSize, (opts.MinPts+1)*8)
	if err != nil {
		return nil, err
	}
	return &LOFTable{minPts: opts.MinPts, entries: entries}, nil
}

// Insert stores the entry of an object for the first time.
func (t *LOFTable) Insert(id int, entry LOFEntry) error {
	if len(entry.Sum2) != t.minPts {
		return fmt.Errorf("sum2 of object %d has %d entries, want %d", id, len(entry.Sum2), t.minPts)
	}
	t.entries.Put(id, entry.clone())
	return nil
}

// Entry returns a copy of the object's entry.
func (t *LOFTable) Entry(id int) (LOFEntry, error) {
	entry, err := t.entries.Get(id)
	if err != nil {
		return LOFEntry{}, err
	}
	return entry.clone(), nil
}

// SetSum1 overwrites the object's sum1.
func (t *LOFTable) SetSum1(id int, value float64) error {
	return t.entries.Update(id, func(e LOFEntry) LOFEntry {
		e.Sum1 = value
		return e
	})
}

// AddSum1 adds a differential to the object's sum1.
func (t *LOFTable) AddSum1(id int, delta float64) error {
	return t.entries.Update(id, func(e LOFEntry) LOFEntry {
		e.Sum1 += delta
		return e
	})
}

// Sum2 returns the object's sum2 at the given rank.
func (t *LOFTable) Sum2(id, rank int) (float64, error) {
	entry, err := t.entries.Get(id)
	if err != nil {
		return 0, err
	}
	if rank < 0 || rank >= len(entry.Sum2) {
		return 0, fmt.Errorf("sum2 rank %d out of bounds for object %d", rank, id)
	}
	return entry.Sum2[rank], nil
}

// SetSum2 overwrites the object's sum2 at the given rank.
func (t *LOFTable) SetSum2(id, rank int, value float64) error {
	return t.updateSum2(id, rank, func(float64) float64 { return value })
}

// AddSum2 adds a differential to the object's sum2 at the given rank.
func (t *LOFTable) AddSum2(id, rank int, delta float64) error {
	return t.updateSum2(id, rank, func(v float64) float64 { return v + delta })
}

// updateSum2 applies fn to a single sum2 slot.
func (t *LOFTable) updateSum2(id, rank int, fn func(float64) float64) error {
	var rangeErr error
	err := t.entries.Update(id, func(e LOFEntry) LOFEntry {
		if rank < 0 || rank >= len(e.Sum2) {
			rangeErr = fmt.Errorf("sum2 rank %d out of bounds for object %d", rank, id)
			return e
		}
		e = e.clone()
		e.Sum2[rank] = fn(e.Sum2[rank])
		return e
	})
	if err != nil {
		return err
	}
	return rangeErr
}

// InsertAndMoveSum2 inserts a value into the object's sum2 at the given rank,
// moving all later entries one rank down and discarding the last. It mirrors
// NNTable.InsertAndMove so that sum2[i] keeps corresponding to the i-th
// neighbor of the object.
func (t *LOFTable) InsertAndMoveSum2(id, rank int, value float64) error {
	var rangeErr error
	err := t.entries.Update(id, func(e LOFEntry) LOFEntry {
		if rank < 0 || rank >= len(e.Sum2) {
			rangeErr = fmt.Errorf("sum2 rank %d out of bounds for object %d", rank, id)
			return e
		}
		e = e.clone()
		copy(e.Sum2[rank+1:], e.Sum2[rank:])
		e.Sum2[rank] = value
		return e
	})
	if err != nil {
		return err
	}
	return rangeErr
}

// LOF derives the object's local outlier factor from its entry: the object's
// average reachability distance divided by the average of its neighbors'
// average reachability distances, minPts*sum1 / sum(sum2). A fully degenerate
// entry (all distances zero) has uniform density and projects to 1.
func (t *LOFTable) LOF(id int) (float64, error) {
	entry, err := t.entries.Get(id)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, s := range entry.Sum2 {
		total += s
	}
	if total == 0 {
		if entry.Sum1 == 0 {
			return 1, nil
		}
		return math.Inf(1), nil
	}
	return float64(t.minPts) * entry.Sum1 / total, nil
}

// IDs returns the ids of all objects with an entry, ascending.
func (t *LOFTable) IDs() []int {
	return t.entries.Keys()
}

// Len returns the number of entries in the table.
func (t *LOFTable) Len() int {
	return t.entries.Len()
}

// Stats returns the access counters of the backing record store.
func (t *LOFTable) Stats() store.Stats {
	return t.entries.Stats()
}

// ResetStats zeroes the access counters of the backing record store.
func (t *LOFTable) ResetStats() {
	t.entries.ResetStats()
}

// Flush writes out the dirty pages of the backing record store.
func (t *LOFTable) Flush() {
	t.entries.Flush()
}

// snapshot exports all entries for persistence, bypassing access accounting.
func (t *LOFTable) snapshot() map[int]LOFEntry {
	return t.entries.Snapshot()
}

// restore replaces the table contents with previously saved entries and
// zeroes the access counters.
func (t *LOFTable) restore(entries map[int]LOFEntry) {
	for id, entry := range entries {
		t.entries.Put(id, entry.clone())
	}
	t.entries.ResetStats()
}
