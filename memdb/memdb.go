// Package memdb provides an exhaustive-scan, in-memory implementation of the
// core.Database collaborator. It is the reference database for tests, the
// example runner, and the CLI; any store answering the same query contract
// can replace it.
package memdb

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/patrikhermansson/olof/core"
)

// DB stores vectors by id and answers kNN and reverse-kNN queries by scanning
// all of them. Ids are dense and assigned in insertion order, starting at 1.
type DB struct {
	dimension int
	vectors   map[int][]float32
	nextID    int
}

// New creates an empty database for vectors of the given dimension.
func New(dimension int) *DB {
	return &DB{
		dimension: dimension,
		vectors:   make(map[int][]float32),
		nextID:    1,
	}
}

// Insert adds a vector to the database and returns its assigned id.
func (db *DB) Insert(vector []float32) (int, error) {
	if len(vector) != db.dimension {
		return 0, fmt.Errorf("vector dimension %d does not match database dimension %d",
			len(vector), db.dimension)
	}
	id := db.nextID
	db.nextID++
	stored := make([]float32, len(vector))
	copy(stored, vector)
	db.vectors[id] = stored
	log.Debug().Msgf("Inserted object %d", id)
	return id, nil
}

// IDs returns the ids of all stored objects in ascending order.
func (db *DB) IDs() []int {
	ids := make([]int, 0, len(db.vectors))
	for id := range db.vectors {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of stored objects.
func (db *DB) Len() int {
	return len(db.vectors)
}

// Vector returns the stored vector for an id.
func (db *DB) Vector(id int) ([]float32, bool) {
	v, ok := db.vectors[id]
	return v, ok
}

// KNNQuery returns the k nearest neighbors of the object with the given id,
// sorted ascending by (distance, id). The object itself is the first result.
func (db *DB) KNNQuery(id, k int, distance core.DistanceFunc) ([]core.Neighbor, error) {
	query, ok := db.vectors[id]
	if !ok {
		return nil, fmt.Errorf("id %d not found", id)
	}
	result := db.scan(id, query, distance)
	if k < len(result) {
		result = result[:k]
	}
	return result, nil
}

// ReverseKNNQuery returns every object whose k nearest neighbors contain the
// object with the given id, sorted ascending by (distance, id). The result is
// not truncated to k entries.
func (db *DB) ReverseKNNQuery(id, k int, distance core.DistanceFunc) ([]core.Neighbor, error) {
	query, ok := db.vectors[id]
	if !ok {
		return nil, fmt.Errorf("id %d not found", id)
	}
	var result []core.Neighbor
	for candidate, vec := range db.vectors {
		knn, err := db.KNNQuery(candidate, k, distance)
		if err != nil {
			return nil, err
		}
		for _, n := range knn {
			if n.ID == id {
				result = append(result, core.Neighbor{ID: candidate, Distance: distance(vec, query)})
				break
			}
		}
	}
	sortNeighbors(id, result)
	return result, nil
}

// scan computes the distance from the query vector to every stored object and
// returns all of them sorted ascending by (distance, id). The queried object
// itself always sorts first, even when other objects are coincident with it.
func (db *DB) scan(selfID int, query []float32, distance core.DistanceFunc) []core.Neighbor {
	result := make([]core.Neighbor, 0, len(db.vectors))
	for id, vec := range db.vectors {
		result = append(result, core.Neighbor{ID: id, Distance: distance(query, vec)})
	}
	sortNeighbors(selfID, result)
	return result
}

// sortNeighbors orders neighbors ascending by (distance, id), with the
// queried object itself always first.
func sortNeighbors(selfID int, neighbors []core.Neighbor) {
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].ID == selfID {
			return true
		}
		if neighbors[j].ID == selfID {
			return false
		}
		if neighbors[i].Distance == neighbors[j].Distance {
			return neighbors[i].ID < neighbors[j].ID
		}
		return neighbors[i].Distance < neighbors[j].Distance
	})
}

// Check interface compliance at compile time.
var _ core.Database = (*DB)(nil)
