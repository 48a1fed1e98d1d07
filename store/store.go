// Package store provides a paged record store: an unbounded in-memory record
// map whose pages are tracked by a fixed-size LRU residency cache. Every read
// and write is counted as a logical access; accesses that fault a page into
// the cache (or evict a dirty one) are additionally counted as physical
// accesses, approximating the disk I/O cost a page-structured table would pay.
package store

import (
	"errors"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrMissingKey is returned when a record was never inserted.
var ErrMissingKey = errors.New("store: missing key")

// Stats holds the access counters of a Store. Physical counters are bounded
// by their logical counterparts and both only grow between resets.
type Stats struct {
	PhysicalReads  uint64 // page faults: record accesses that had to materialize a page
	PhysicalWrites uint64 // dirty pages written out on eviction or flush
	LogicalReads   uint64 // all record reads, hit or miss
	LogicalWrites  uint64 // all record writes, hit or miss
}

// pageState tracks the residency state of a single page.
type pageState struct {
	dirty bool
}

// Store is a paged record store mapping an integer key to a record of type V.
// Eviction affects residency and accounting only; no key is ever dropped from
// the backing map. A Store is not safe for concurrent use.
type Store[V any] struct {
	records        map[int]V
	resident       *lru.Cache[int, *pageState]
	recordsPerPage int
	stats          Stats
}

// New creates a Store whose pages hold pageSize/recordBytes records each and
// whose residency cache holds cacheSize/pageSize pages. Both ratios are
// clamped to a minimum of 1.
func New[V any](pageSize, cacheSize, recordBytes int) (*Store[V], error) {
	recordsPerPage := pageSize / recordBytes
	if recordsPerPage < 1 {
		recordsPerPage = 1
	}
	pages := cacheSize / pageSize
	if pages < 1 {
		pages = 1
	}

	s := &Store[V]{
		records:        make(map[int]V),
		recordsPerPage: recordsPerPage,
	}
	resident, err := lru.NewWithEvict(pages, func(_ int, p *pageState) {
		if p.dirty {
			s.stats.PhysicalWrites++
		}
	})
	if err != nil {
		return nil, err
	}
	s.resident = resident
	return s, nil
}

// pageOf returns the page a key lives on.
func (s *Store[V]) pageOf(key int) int {
	return key / s.recordsPerPage
}

// touch marks the key's page as most recently used, faulting it in if it is
// not resident. Faulting in may evict the least recently used page.
func (s *Store[V]) touch(key int, write bool) {
	page := s.pageOf(key)
	if p, ok := s.resident.Get(page); ok {
		if write {
			p.dirty = true
		}
		return
	}
	// Page fault: the page must be materialized before the access completes.
	s.stats.PhysicalReads++
	s.resident.Add(page, &pageState{dirty: write})
}

// Get returns the record stored under key.
// It returns ErrMissingKey if the key was never inserted.
func (s *Store[V]) Get(key int) (V, error) {
	s.stats.LogicalReads++
	s.touch(key, false)
	v, ok := s.records[key]
	if !ok {
		var zero V
		return zero, ErrMissingKey
	}
	return v, nil
}

// Put stores the record under key, creating or replacing it.
func (s *Store[V]) Put(key int, value V) {
	s.stats.LogicalWrites++
	s.touch(key, true)
	s.records[key] = value
}

// Update applies fn to the record stored under key and writes the result
// back. It counts as one read and one write but touches the page only once.
// It returns ErrMissingKey if the key was never inserted.
func (s *Store[V]) Update(key int, fn func(V) V) error {
	s.stats.LogicalReads++
	s.stats.LogicalWrites++
	s.touch(key, true)
	v, ok := s.records[key]
	if !ok {
		return ErrMissingKey
	}
	s.records[key] = fn(v)
	return nil
}

// Contains reports whether a record exists under key without counting an
// access or touching the residency cache.
func (s *Store[V]) Contains(key int) bool {
	_, ok := s.records[key]
	return ok
}

// Len returns the number of stored records.
func (s *Store[V]) Len() int {
	return len(s.records)
}

// Keys returns all stored keys in ascending order.
func (s *Store[V]) Keys() []int {
	keys := make([]int, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Snapshot returns a shallow copy of all stored records. It is a diagnostic
// and persistence path and does not count accesses or touch residency.
func (s *Store[V]) Snapshot() map[int]V {
	snap := make(map[int]V, len(s.records))
	for k, v := range s.records {
		snap[k] = v
	}
	return snap
}

// Flush writes out all resident dirty pages, counting one physical write per
// page, and marks them clean. Residency is unchanged.
func (s *Store[V]) Flush() {
	for _, page := range s.resident.Keys() {
		if p, ok := s.resident.Peek(page); ok && p.dirty {
			s.stats.PhysicalWrites++
			p.dirty = false
		}
	}
}

// Stats returns the current access counters.
func (s *Store[V]) Stats() Stats {
	return s.stats
}

// ResetStats zeroes all access counters without altering stored records or
// residency.
func (s *Store[V]) ResetStats() {
	s.stats = Stats{}
}
