package lof

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/patrikhermansson/olof/core"
)

// OnlineLOF maintains the tables of a Result as new objects arrive, one at a
// time. After every successful Insert the tables equal what a fresh batch run
// over the grown database would produce; only objects within two
// reverse-neighbor hops of the new object are ever touched.
//
// Insertions are single logical operations and must not be interleaved; the
// engine is not safe for concurrent use. Deletions are not supported.
type OnlineLOF struct {
	db       core.Database
	distance core.DistanceFunc
	minPts   int
	nn       *NNTable
	lofs     *LOFTable
}

// NewOnline creates an incremental engine over the tables of an existing
// result, usually produced by a batch run or loaded from a saved state. The
// page-access counters of both tables are reset so they report the cost of
// the online session only.
func NewOnline(db core.Database, distance core.DistanceFunc, res *Result) (*OnlineLOF, error) {
	if res == nil || res.nn == nil || res.lofs == nil {
		return nil, fmt.Errorf("%w: online engine needs the tables of a previous run", ErrInvalidConfig)
	}
	res.nn.ResetStats()
	res.lofs.ResetStats()
	return &OnlineLOF{
		db:       db,
		distance: distance,
		minPts:   res.opts.MinPts,
		nn:       res.nn,
		lofs:     res.lofs,
	}, nil
}

// Insert adds one object to the database and updates both tables so that
// every stored neighbor list, reachability distance, and sum matches a full
// recomputation over the grown database. It returns the id the database
// assigned to the object.
//
// On error the tables may be left inconsistent; the caller must rebuild them
// with a batch run before using them again.
func (e *OnlineLOF) Insert(vector []float32) (int, error) {
	o, err := e.db.Insert(vector)
	if err != nil {
		return 0, err
	}
	log.Debug().Msgf("Insert %d", o)

	knn, err := e.db.KNNQuery(o, e.minPts+1, e.distance)
	if err != nil {
		return 0, fmt.Errorf("%w: kNN of %d: %v", ErrDistanceQuery, o, err)
	}
	rknn, err := e.db.ReverseKNNQuery(o, e.minPts+1, e.distance)
	if err != nil {
		return 0, fmt.Errorf("%w: reverse kNN of %d: %v", ErrDistanceQuery, o, err)
	}
	neighbors := dropSelf(knn, o)
	reverse := dropSelf(rknn, o)
	if len(neighbors) < e.minPts {
		return 0, fmt.Errorf("%w: database holds %d other objects, want at least %d", ErrInsufficientData, len(neighbors), e.minPts)
	}
	neighbors = neighbors[:e.minPts]

	// Insert the new object itself into both tables.
	if err := e.seedObject(o, neighbors); err != nil {
		return 0, err
	}

	// Consequences of o entering the neighbor lists of its reverse neighbors.
	knnDistances, err := e.cascadeNeighborSets(o, neighbors, reverse)
	if err != nil {
		return 0, err
	}

	// Consequences of the changed k-distances on reachability distances.
	if err := e.cascadeReachability(reverse, knnDistances); err != nil {
		return 0, err
	}
	return o, nil
}

// seedObject inserts the new object's neighbor list and LOF entry. The
// neighbors are already ranked; their reachability distances use the
// k-distances their owners have at this point, which the cascades correct
// afterwards where needed.
func (e *OnlineLOF) seedObject(o int, neighbors []core.Neighbor) error {
	var sum1 float64
	sum2 := make([]float64, e.minPts)

	for i, qr := range neighbors {
		p := qr.ID
		kdist, err := e.nn.KDistance(p)
		if err != nil {
			return err
		}
		reach := math.Max(kdist, qr.Distance)
		if err := e.nn.Insert(Neighbor{OwnerID: o, Rank: i, NeighborID: p, ReachDist: reach, Dist: qr.Distance}); err != nil {
			return err
		}
		sum1 += reach

		sum, err := e.nn.SumOfReachabilityDistances(p)
		if err != nil {
			return err
		}
		sum2[i] = sum
	}
	return e.lofs.Insert(o, LOFEntry{Sum1: sum1, Sum2: sum2})
}

// cascadeNeighborSets inserts o into the neighbor list of every reverse
// neighbor p, displacing p's previous minPts-th neighbor, and keeps all sums
// that copy p's reachability distances consistent. It returns, per reverse
// neighbor, the k-distance it has after the displacement, which the
// reachability cascade needs.
func (e *OnlineLOF) cascadeNeighborSets(o int, neighbors, reverse []core.Neighbor) (map[int]float64, error) {
	// o's own k-distance: the raw distance to its minPts-th neighbor.
	kdistO := neighbors[e.minPts-1].Distance

	knnDistances := make(map[int]float64, len(reverse))
	for _, qr := range reverse {
		p := qr.ID
		distPO := qr.Distance
		reachPO := math.Max(kdistO, distPO)

		oldList, err := e.nn.Neighbors(p)
		if err != nil {
			return nil, err
		}

		// p's k-distance after o displaces its previous minPts-th neighbor:
		// the larger of dist(p,o) and p's previous (minPts-1)-th distance.
		knnDistP := distPO
		if e.minPts >= 2 {
			knnDistP = math.Max(distPO, oldList[e.minPts-2].Dist)
		}
		knnDistances[p] = knnDistP

		// Insert o at its rank in p's list; the previous last neighbor falls off.
		rank := oldList.RankFor(distPO, o)
		evicted, err := e.nn.InsertAndMove(Neighbor{OwnerID: p, Rank: rank, NeighborID: o, ReachDist: reachPO, Dist: distPO})
		if err != nil {
			return nil, err
		}
		log.Debug().Msgf("Object %d displaces %d at rank %d of %d", o, evicted.NeighborID, rank, p)

		// p's sum1 trades the evicted reachability distance for o's.
		delta := reachPO - evicted.ReachDist
		if err := e.lofs.AddSum1(p, delta); err != nil {
			return nil, err
		}

		// p's sum2 shifts with the list; the new slot copies o's list sum.
		sumO, err := e.nn.SumOfReachabilityDistances(o)
		if err != nil {
			return nil, err
		}
		if err := e.lofs.InsertAndMoveSum2(p, rank, sumO); err != nil {
			return nil, err
		}

		// Everyone holding p as a neighbor caches p's list sum in their sum2.
		rnnP, err := e.nn.ReverseNeighbors(p)
		if err != nil {
			return nil, err
		}
		for _, q := range rnnP {
			if err := e.lofs.AddSum2(q.OwnerID, q.Rank, delta); err != nil {
				return nil, err
			}
		}
	}
	return knnDistances, nil
}

// cascadeReachability recomputes, for every reverse neighbor p of the new
// object, the reachability distance of each entry (q, p) against p's new
// k-distance, and propagates the changed distances into the affected sums.
func (e *OnlineLOF) cascadeReachability(reverse []core.Neighbor, knnDistances map[int]float64) error {
	for _, qr := range reverse {
		p := qr.ID
		knnDistP := knnDistances[p]

		rnnP, err := e.nn.ReverseNeighbors(p)
		if err != nil {
			return err
		}
		for _, q := range rnnP {
			oldReach := q.ReachDist
			newReach := math.Max(q.Dist, knnDistP)
			if newReach == oldReach {
				continue
			}

			// Overwrite reachdist(q, p) and fix q's sum1.
			if err := e.nn.SetReachabilityDistance(q.OwnerID, p, newReach); err != nil {
				return err
			}
			delta := newReach - oldReach
			if err := e.lofs.AddSum1(q.OwnerID, delta); err != nil {
				return err
			}

			// Everyone holding q as a neighbor caches q's list sum in their sum2.
			rnnQ, err := e.nn.ReverseNeighbors(q.OwnerID)
			if err != nil {
				return err
			}
			for _, r := range rnnQ {
				if err := e.lofs.AddSum2(r.OwnerID, r.Rank, delta); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
