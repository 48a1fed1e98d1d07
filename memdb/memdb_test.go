package memdb_test

import (
	"testing"

	"github.com/patrikhermansson/olof/core"
	"github.com/patrikhermansson/olof/memdb"
)

// newLineDB builds a database holding the 1-D points 0, 1, 2, 10, 11,
// assigned ids 1 through 5.
func newLineDB(t *testing.T) *memdb.DB {
	t.Helper()
	db := memdb.New(1)
	for _, p := range []float32{0, 1, 2, 10, 11} {
		if _, err := db.Insert([]float32{p}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	return db
}

func TestDB_InsertAssignsDenseIDs(t *testing.T) {
	db := memdb.New(2)

	id1, err := db.Insert([]float32{1, 2})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	id2, err := db.Insert([]float32{3, 4})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id1 != 1 || id2 != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", id1, id2)
	}

	// Dimension mismatch must be rejected.
	if _, err := db.Insert([]float32{1}); err == nil {
		t.Error("expected error due to dimension mismatch, got none")
	}
}

func TestDB_KNNQueryOrderAndSelf(t *testing.T) {
	db := newLineDB(t)

	// Query around id 2 (point 1): self first, then ties broken by id.
	knn, err := db.KNNQuery(2, 3, core.Euclidean)
	if err != nil {
		t.Fatalf("KNNQuery failed: %v", err)
	}
	if len(knn) != 3 {
		t.Fatalf("expected 3 results, got %d", len(knn))
	}
	if knn[0].ID != 2 || knn[0].Distance != 0 {
		t.Errorf("expected self first at distance 0, got %+v", knn[0])
	}
	// Points 0 (id 1) and 2 (id 3) are both at distance 1; id 1 wins the tie.
	if knn[1].ID != 1 || knn[2].ID != 3 {
		t.Errorf("tie-break by id violated: %+v", knn[1:])
	}
}

func TestDB_KNNQuerySelfFirstWithCoincidentPoint(t *testing.T) {
	db := memdb.New(1)
	for _, p := range []float32{5, 5, 7} {
		if _, err := db.Insert([]float32{p}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	// Id 2 is coincident with id 1; the queried object must still come first.
	knn, err := db.KNNQuery(2, 2, core.Euclidean)
	if err != nil {
		t.Fatalf("KNNQuery failed: %v", err)
	}
	if knn[0].ID != 2 {
		t.Errorf("expected queried id 2 first, got %d", knn[0].ID)
	}
	if knn[1].ID != 1 || knn[1].Distance != 0 {
		t.Errorf("expected coincident id 1 at distance 0 next, got %+v", knn[1])
	}
}

func TestDB_ReverseKNNQuery(t *testing.T) {
	db := newLineDB(t)

	// With k=3 (self plus two others), only ids 4 and 5 hold id 5 in their kNN.
	rnn, err := db.ReverseKNNQuery(5, 3, core.Euclidean)
	if err != nil {
		t.Fatalf("ReverseKNNQuery failed: %v", err)
	}
	if len(rnn) != 2 {
		t.Fatalf("expected 2 reverse neighbors, got %v", rnn)
	}
	if rnn[0].ID != 5 || rnn[0].Distance != 0 {
		t.Errorf("expected self first, got %+v", rnn[0])
	}
	if rnn[1].ID != 4 || rnn[1].Distance != 1 {
		t.Errorf("expected id 4 at distance 1, got %+v", rnn[1])
	}

	// Id 3 (point 2) is a kNN member of every point on the left cluster and of
	// both right points, so its reverse neighborhood covers the whole database.
	rnn, err = db.ReverseKNNQuery(3, 3, core.Euclidean)
	if err != nil {
		t.Fatalf("ReverseKNNQuery failed: %v", err)
	}
	if len(rnn) != 5 {
		t.Errorf("expected all 5 objects, got %v", rnn)
	}
}

func TestDB_QueriesUnknownID(t *testing.T) {
	db := newLineDB(t)

	if _, err := db.KNNQuery(42, 2, core.Euclidean); err == nil {
		t.Error("expected error for unknown id in KNNQuery, got none")
	}
	if _, err := db.ReverseKNNQuery(42, 2, core.Euclidean); err == nil {
		t.Error("expected error for unknown id in ReverseKNNQuery, got none")
	}
}
