// Package lof computes and incrementally maintains Local Outlier Factors
// over a database of objects. A batch run (LOF) builds the neighbor and LOF
// aggregate tables from scratch in three passes; the online engine
// (OnlineLOF) keeps the same tables exact under one-at-a-time insertions
// without recomputing unaffected objects.
package lof

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/patrikhermansson/olof/core"
)

// LOF is the batch computation engine. It assumes exclusive ownership of the
// fresh tables it builds for the duration of a run.
type LOF struct {
	db       core.Database
	distance core.DistanceFunc
	opts     Options
}

// New creates a batch engine over the given database and distance function.
func New(db core.Database, distance core.DistanceFunc, opts Options) (*LOF, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &LOF{db: db, distance: distance, opts: opts}, nil
}

// Run computes neighbor lists, reachability distances, and LOF sums for every
// object in the database, in three full passes. Each pass only reads state
// completely written by the previous one, so the result does not depend on
// the visitation order. Any query failure aborts the whole run.
func (l *LOF) Run() (*Result, error) {
	nn, err := NewNNTable(l.opts)
	if err != nil {
		return nil, err
	}
	lofs, err := NewLOFTable(l.opts)
	if err != nil {
		return nil, err
	}

	ids := l.db.IDs()
	log.Info().Msgf("Computing LOFs for %d objects with minPts=%d", len(ids), l.opts.MinPts)

	// Step 1: compute the neighborhood of every object.
	log.Info().Msg("Step 1: computing neighborhoods")
	for _, id := range ids {
		if err := l.computeNeighbors(nn, id); err != nil {
			return nil, err
		}
	}

	// Step 2: compute reachability distances against the complete lists.
	log.Info().Msg("Step 2: computing reachability distances")
	for _, id := range ids {
		if err := nn.ComputeReachabilityDistances(id); err != nil {
			return nil, err
		}
	}

	// Step 3: aggregate the sums of every object.
	log.Info().Msg("Step 3: computing LOFs")
	for _, id := range ids {
		if err := l.computeSums(nn, lofs, id); err != nil {
			return nil, err
		}
	}

	return &Result{opts: l.opts, nn: nn, lofs: lofs}, nil
}

// computeNeighbors queries the minPts nearest neighbors of an object and
// inserts them, ranked, into the neighbor table.
func (l *LOF) computeNeighbors(nn *NNTable, id int) error {
	knn, err := l.db.KNNQuery(id, l.opts.MinPts+1, l.distance)
	if err != nil {
		return fmt.Errorf("%w: kNN of %d: %v", ErrDistanceQuery, id, err)
	}
	neighbors := dropSelf(knn, id)
	if len(neighbors) < l.opts.MinPts {
		return fmt.Errorf("%w: object %d has %d neighbors, want %d", ErrInsufficientData, id, len(neighbors), l.opts.MinPts)
	}

	for k := 0; k < l.opts.MinPts; k++ {
		qr := neighbors[k]
		if err := nn.Insert(Neighbor{OwnerID: id, Rank: k, NeighborID: qr.ID, Dist: qr.Distance}); err != nil {
			return err
		}
	}
	return nil
}

// computeSums aggregates sum1 and sum2 of an object from the finished
// neighbor table and stores its LOF entry.
func (l *LOF) computeSums(nn *NNTable, lofs *LOFTable, id int) error {
	neighbors, err := nn.Neighbors(id)
	if err != nil {
		return err
	}

	var sum1 float64
	sum2 := make([]float64, l.opts.MinPts)
	for k, p := range neighbors {
		sum1 += p.ReachDist
		sum, err := nn.SumOfReachabilityDistances(p.NeighborID)
		if err != nil {
			return err
		}
		sum2[k] = sum
	}
	return lofs.Insert(id, LOFEntry{Sum1: sum1, Sum2: sum2})
}

// dropSelf removes the query object itself from a neighbor query result.
func dropSelf(neighbors []core.Neighbor, id int) []core.Neighbor {
	out := make([]core.Neighbor, 0, len(neighbors))
	for _, n := range neighbors {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}
