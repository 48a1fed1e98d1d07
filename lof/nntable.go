package lof

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/patrikhermansson/olof/store"
)

// neighborBytes is the serialized size estimate of one Neighbor record, used
// to derive how many neighbor lists fit on a store page.
const neighborBytes = 40

// NNTable holds, per object, the sorted list of its minPts nearest neighbors
// together with their raw and reachability distances, plus an index of
// reverse-neighbor relationships. Lists are created once per object and
// updated in place; the table never deletes an object.
//
// The forward lists live in a paged record store and are the single source of
// truth; the reverse index only records which owners reference a neighbor and
// reverse-neighbor records are materialized from the forward lists on demand.
type NNTable struct {
	minPts  int
	lists   *store.Store[NeighborList]
	reverse map[int]map[int]struct{} // neighbor id -> ids of owners listing it
}

// NewNNTable creates an empty neighbor table for the given options.
func NewNNTable(opts Options) (*NNTable, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	lists, err := store.New[NeighborList](opts.PageSize, opts.CacheSize, opts.MinPts*neighborBytes)
	if err != nil {
		return nil, err
	}
	return &NNTable{
		minPts:  opts.MinPts,
		lists:   lists,
		reverse: make(map[int]map[int]struct{}),
	}, nil
}

// MinPts returns the neighbor list length the table maintains.
func (t *NNTable) MinPts() int {
	return t.minPts
}

// Insert places a neighbor at its rank in the owner's list, growing the list.
// It is only used to populate an object's list for the first time, with
// already-ranked neighbors; a full list must be updated with InsertAndMove.
func (t *NNTable) Insert(n Neighbor) error {
	list, err := t.lists.Get(n.OwnerID)
	if err != nil && !errors.Is(err, store.ErrMissingKey) {
		return err
	}
	if len(list) >= t.minPts {
		return fmt.Errorf("neighbor list of %d is already full", n.OwnerID)
	}
	if n.Rank < 0 || n.Rank > len(list) {
		return fmt.Errorf("rank %d out of bounds for neighbor list of %d (len %d)", n.Rank, n.OwnerID, len(list))
	}

	list = list.clone()
	list = append(list, Neighbor{})
	copy(list[n.Rank+1:], list[n.Rank:])
	list[n.Rank] = n
	renumber(list)

	t.lists.Put(n.OwnerID, list)
	t.link(n.NeighborID, n.OwnerID)
	return nil
}

// InsertAndMove inserts a neighbor at its rank into an already-full list,
// moving all later neighbors one rank down, and returns the neighbor that
// falls off the end.
func (t *NNTable) InsertAndMove(n Neighbor) (Neighbor, error) {
	list, err := t.lists.Get(n.OwnerID)
	if err != nil {
		return Neighbor{}, err
	}
	if len(list) != t.minPts {
		return Neighbor{}, fmt.Errorf("neighbor list of %d has %d entries, want %d", n.OwnerID, len(list), t.minPts)
	}
	if n.Rank < 0 || n.Rank >= t.minPts {
		return Neighbor{}, fmt.Errorf("rank %d out of bounds for full neighbor list of %d", n.Rank, n.OwnerID)
	}
	for _, existing := range list {
		if existing.NeighborID == n.NeighborID {
			return Neighbor{}, fmt.Errorf("object %d is already a neighbor of %d", n.NeighborID, n.OwnerID)
		}
	}

	evicted := list[t.minPts-1]
	list = list.clone()
	copy(list[n.Rank+1:], list[n.Rank:])
	list[n.Rank] = n
	renumber(list)

	t.lists.Put(n.OwnerID, list)
	t.unlink(evicted.NeighborID, n.OwnerID)
	t.link(n.NeighborID, n.OwnerID)
	return evicted, nil
}

// Neighbors returns a copy of the neighbor list of the given object.
func (t *NNTable) Neighbors(id int) (NeighborList, error) {
	list, err := t.lists.Get(id)
	if err != nil {
		return nil, err
	}
	return list.clone(), nil
}

// ReverseNeighbors returns a copy of every neighbor record that references
// the given object, ordered by owner id ascending. Each owner references an
// object at exactly one rank; a second occurrence would mean the table's
// bookkeeping is corrupt.
func (t *NNTable) ReverseNeighbors(id int) ([]Neighbor, error) {
	owners := make([]int, 0, len(t.reverse[id]))
	for owner := range t.reverse[id] {
		owners = append(owners, owner)
	}
	sort.Ints(owners)

	records := make([]Neighbor, 0, len(owners))
	for _, owner := range owners {
		list, err := t.lists.Get(owner)
		if err != nil {
			return nil, err
		}
		found := false
		for _, n := range list {
			if n.NeighborID != id {
				continue
			}
			if found {
				return nil, fmt.Errorf("object %d appears twice in the neighbor list of %d", id, owner)
			}
			records = append(records, n)
			found = true
		}
		if !found {
			return nil, fmt.Errorf("reverse index lists %d for owner %d but the neighbor list does not", id, owner)
		}
	}
	return records, nil
}

// KDistance returns the distance from an object to its minPts-th nearest
// neighbor, i.e. the raw distance of the last entry in its list.
func (t *NNTable) KDistance(id int) (float64, error) {
	list, err := t.lists.Get(id)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, fmt.Errorf("neighbor list of %d is empty", id)
	}
	return list[len(list)-1].Dist, nil
}

// ComputeReachabilityDistances sets the reachability distance of every entry
// in the object's list to max(raw distance, k-distance of the neighbor). It
// is used once per object in batch mode, after all lists are complete.
func (t *NNTable) ComputeReachabilityDistances(id int) error {
	list, err := t.lists.Get(id)
	if err != nil {
		return err
	}
	list = list.clone()
	for i, n := range list {
		kdist, err := t.KDistance(n.NeighborID)
		if err != nil {
			return err
		}
		list[i].ReachDist = math.Max(n.Dist, kdist)
	}
	t.lists.Put(id, list)
	return nil
}

// SetReachabilityDistance overwrites the stored reachability distance of the
// owner's entry for the given neighbor.
func (t *NNTable) SetReachabilityDistance(ownerID, neighborID int, value float64) error {
	return t.lists.Update(ownerID, func(list NeighborList) NeighborList {
		list = list.clone()
		for i := range list {
			if list[i].NeighborID == neighborID {
				list[i].ReachDist = value
				break
			}
		}
		return list
	})
}

// SumOfReachabilityDistances returns the sum of the reachability distances
// across the object's current neighbor list.
func (t *NNTable) SumOfReachabilityDistances(id int) (float64, error) {
	list, err := t.lists.Get(id)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, n := range list {
		sum += n.ReachDist
	}
	return sum, nil
}

// IDs returns the ids of all objects with a neighbor list, ascending.
func (t *NNTable) IDs() []int {
	return t.lists.Keys()
}

// Len returns the number of neighbor lists in the table.
func (t *NNTable) Len() int {
	return t.lists.Len()
}

// Stats returns the access counters of the backing record store.
func (t *NNTable) Stats() store.Stats {
	return t.lists.Stats()
}

// ResetStats zeroes the access counters of the backing record store.
func (t *NNTable) ResetStats() {
	t.lists.ResetStats()
}

// Flush writes out the dirty pages of the backing record store.
func (t *NNTable) Flush() {
	t.lists.Flush()
}

// snapshot exports all lists for persistence, bypassing access accounting.
func (t *NNTable) snapshot() map[int]NeighborList {
	return t.lists.Snapshot()
}

// restore replaces the table contents with previously saved lists, rebuilds
// the reverse index, and zeroes the access counters.
func (t *NNTable) restore(lists map[int]NeighborList) {
	t.reverse = make(map[int]map[int]struct{})
	for id, list := range lists {
		t.lists.Put(id, list.clone())
		for _, n := range list {
			t.link(n.NeighborID, id)
		}
	}
	t.lists.ResetStats()
}

// link records that owner's list references neighbor id.
func (t *NNTable) link(id, owner int) {
	owners, ok := t.reverse[id]
	if !ok {
		owners = make(map[int]struct{})
		t.reverse[id] = owners
	}
	owners[owner] = struct{}{}
}

// unlink removes the record that owner's list references neighbor id.
func (t *NNTable) unlink(id, owner int) {
	if owners, ok := t.reverse[id]; ok {
		delete(owners, owner)
		if len(owners) == 0 {
			delete(t.reverse, id)
		}
	}
}

// renumber restores the list[i].Rank == i invariant after a shift.
func renumber(list NeighborList) {
	for i := range list {
		list[i].Rank = i
	}
}
