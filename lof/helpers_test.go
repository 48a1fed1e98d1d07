package lof_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patrikhermansson/olof/core"
	"github.com/patrikhermansson/olof/lof"
	"github.com/patrikhermansson/olof/memdb"
)

const tolerance = 1e-9

// linePoints is the reference 1-D data set: two tight clusters with point 10
// sitting at the edge of the sparse one.
var linePoints = []float32{0, 1, 2, 10, 11}

// buildDB inserts 1-D points into a fresh database, in order.
func buildDB(t *testing.T, points []float32) *memdb.DB {
	t.Helper()
	db := memdb.New(1)
	for _, p := range points {
		_, err := db.Insert([]float32{p})
		require.NoError(t, err)
	}
	return db
}

// runBatch runs a fresh batch computation over the database.
func runBatch(t *testing.T, db core.Database, minPts int) *lof.Result {
	t.Helper()
	engine, err := lof.New(db, core.Euclidean, lof.Options{MinPts: minPts})
	require.NoError(t, err)
	res, err := engine.Run()
	require.NoError(t, err)
	return res
}

// requireSortedLists checks the neighbor-list invariant for every object:
// exactly minPts entries, strictly ascending by (distance, id), ranks dense.
func requireSortedLists(t *testing.T, res *lof.Result) {
	t.Helper()
	for _, id := range res.IDs() {
		list, err := res.Neighbors(id)
		require.NoError(t, err)
		require.Len(t, list, res.MinPts(), "object %d", id)
		for i, n := range list {
			require.Equal(t, i, n.Rank, "rank of entry %d of object %d", i, id)
			require.Equal(t, id, n.OwnerID, "owner of entry %d of object %d", i, id)
			if i > 0 {
				prev := list[i-1]
				less := prev.Dist < n.Dist || (prev.Dist == n.Dist && prev.NeighborID < n.NeighborID)
				require.True(t, less, "list of %d not strictly ordered at %d", id, i)
			}
		}
	}
}

// requireSumsConsistent recomputes sum1 and sum2 of every object from the
// neighbor lists and checks the stored aggregates against them.
func requireSumsConsistent(t *testing.T, res *lof.Result) {
	t.Helper()
	for _, id := range res.IDs() {
		list, err := res.Neighbors(id)
		require.NoError(t, err)
		entry, err := res.Entry(id)
		require.NoError(t, err)

		var sum1 float64
		for _, n := range list {
			sum1 += n.ReachDist
		}
		require.InDelta(t, sum1, entry.Sum1, tolerance, "sum1 of object %d", id)

		require.Len(t, entry.Sum2, res.MinPts(), "sum2 of object %d", id)
		for i, n := range list {
			neighborList, err := res.Neighbors(n.NeighborID)
			require.NoError(t, err)
			var sum float64
			for _, m := range neighborList {
				sum += m.ReachDist
			}
			require.InDelta(t, sum, entry.Sum2[i], tolerance, "sum2[%d] of object %d", i, id)
		}
	}
}

// requireEqualResults checks that two results hold identical tables, within
// floating tolerance.
func requireEqualResults(t *testing.T, want, got *lof.Result) {
	t.Helper()
	require.Equal(t, want.IDs(), got.IDs())
	for _, id := range want.IDs() {
		wantList, err := want.Neighbors(id)
		require.NoError(t, err)
		gotList, err := got.Neighbors(id)
		require.NoError(t, err)
		require.Len(t, gotList, len(wantList), "list length of object %d", id)
		for i := range wantList {
			require.Equal(t, wantList[i].NeighborID, gotList[i].NeighborID, "neighbor %d of object %d", i, id)
			require.InDelta(t, wantList[i].Dist, gotList[i].Dist, tolerance, "distance %d of object %d", i, id)
			require.InDelta(t, wantList[i].ReachDist, gotList[i].ReachDist, tolerance, "reachdist %d of object %d", i, id)
		}

		wantEntry, err := want.Entry(id)
		require.NoError(t, err)
		gotEntry, err := got.Entry(id)
		require.NoError(t, err)
		require.InDelta(t, wantEntry.Sum1, gotEntry.Sum1, tolerance, "sum1 of object %d", id)
		for i := range wantEntry.Sum2 {
			require.InDelta(t, wantEntry.Sum2[i], gotEntry.Sum2[i], tolerance, "sum2[%d] of object %d", i, id)
		}
	}
}
