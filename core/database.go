package core

// Neighbor holds a neighbor's id and its computed distance.
type Neighbor struct {
	ID       int
	Distance float64
}

// Database is the object store the LOF engines run against.
// It owns the objects and assigns their ids; the engines never mutate it
// except through Insert.
type Database interface {

	// Insert adds a vector to the database and returns its assigned id.
	// Ids are dense and strictly increasing in insertion order.
	Insert(vector []float32) (int, error)

	// IDs returns the ids of all stored objects in ascending order.
	IDs() []int

	// Len returns the number of stored objects.
	Len() int

	// KNNQuery returns the k nearest neighbors of the object with the given id,
	// sorted ascending by (distance, id). The object itself is always the first
	// result, at distance 0.
	KNNQuery(id, k int, distance DistanceFunc) ([]Neighbor, error)

	// ReverseKNNQuery returns every object whose k nearest neighbors (in the
	// KNNQuery sense, self included) contain the object with the given id,
	// sorted ascending by (distance, id). The object itself is always the first
	// result, at distance 0. The result is not truncated to k entries.
	ReverseKNNQuery(id, k int, distance DistanceFunc) ([]Neighbor, error)
}
