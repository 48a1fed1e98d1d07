package lof_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patrikhermansson/olof/core"
	"github.com/patrikhermansson/olof/lof"
)

func TestOnline_MatchesBatch(t *testing.T) {
	db := buildDB(t, linePoints[:3])
	res := runBatch(t, db, 2)

	engine, err := lof.NewOnline(db, core.Euclidean, res)
	require.NoError(t, err)

	for _, p := range linePoints[3:] {
		id, err := engine.Insert([]float32{p})
		require.NoError(t, err)
		require.Equal(t, db.Len(), id)

		requireSortedLists(t, res)
		requireSumsConsistent(t, res)
		requireEqualResults(t, runBatch(t, db, 2), res)
	}

	// The final state reproduces the batch scores over the full data set.
	lof10, err := res.LOF(4)
	require.NoError(t, err)
	require.InDelta(t, 1.7, lof10, tolerance)
	lof1, err := res.LOF(2)
	require.NoError(t, err)
	require.InDelta(t, 4.0/3.0, lof1, tolerance)
}

func TestOnline_InsertionOrderIndependent(t *testing.T) {
	orders := [][]float32{
		{10, 11},
		{11, 10},
	}
	for _, order := range orders {
		db := buildDB(t, linePoints[:3])
		res := runBatch(t, db, 2)

		engine, err := lof.NewOnline(db, core.Euclidean, res)
		require.NoError(t, err)
		for _, p := range order {
			_, err := engine.Insert([]float32{p})
			require.NoError(t, err)
		}

		requireSortedLists(t, res)
		requireSumsConsistent(t, res)
		requireEqualResults(t, runBatch(t, db, 2), res)
	}
}

func TestOnline_CoincidentPoint(t *testing.T) {
	db := buildDB(t, []float32{0, 1, 2})
	res := runBatch(t, db, 2)

	engine, err := lof.NewOnline(db, core.Euclidean, res)
	require.NoError(t, err)
	id, err := engine.Insert([]float32{1})
	require.NoError(t, err)

	// The duplicate of point 1 ranks first in id 2's list, at distance zero.
	list, err := res.Neighbors(2)
	require.NoError(t, err)
	require.Equal(t, id, list[0].NeighborID)
	require.InDelta(t, 0.0, list[0].Dist, tolerance)

	requireSortedLists(t, res)
	requireSumsConsistent(t, res)
	requireEqualResults(t, runBatch(t, db, 2), res)
}

func TestOnline_RequiresTables(t *testing.T) {
	db := buildDB(t, linePoints)

	_, err := lof.NewOnline(db, core.Euclidean, nil)
	require.True(t, errors.Is(err, lof.ErrInvalidConfig))
}

func TestOnline_ResetsCountersAtConstruction(t *testing.T) {
	db := buildDB(t, linePoints[:3])
	res := runBatch(t, db, 2)
	require.NotZero(t, res.NNTableStats().LogicalWrites)

	engine, err := lof.NewOnline(db, core.Euclidean, res)
	require.NoError(t, err)

	// A fresh engine starts a fresh accounting period.
	require.Zero(t, res.NNTableStats().LogicalReads)
	require.Zero(t, res.NNTableStats().LogicalWrites)
	require.Zero(t, res.LOFTableStats().LogicalWrites)

	_, err = engine.Insert([]float32{10})
	require.NoError(t, err)
	require.NotZero(t, res.NNTableStats().LogicalWrites)
	require.NotZero(t, res.LOFTableStats().LogicalWrites)
}
