package example

import (
	"math"
	"testing"
)

func TestTopOutliers(t *testing.T) {
	scores := []Score{
		{ID: 1, LOF: 1.0},
		{ID: 2, LOF: 2.5},
		{ID: 3, LOF: 2.5},
		{ID: 4, LOF: 0.9},
	}

	top := TopOutliers(scores, 3)

	if len(top) != 3 {
		t.Fatalf("expected 3 results, got %d", len(top))
	}
	// Ties on the score are broken by the smaller id.
	wantIDs := []int{2, 3, 1}
	for i, want := range wantIDs {
		if top[i].ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, top[i].ID)
		}
	}

	// The input order is left alone.
	if scores[0].ID != 1 {
		t.Errorf("input slice was reordered")
	}

	// Asking for more than available returns everything.
	if got := len(TopOutliers(scores, 10)); got != 4 {
		t.Errorf("expected 4 results, got %d", got)
	}
}

func TestOutlierThreshold(t *testing.T) {
	scores := []Score{
		{ID: 1, LOF: 1.0},
		{ID: 2, LOF: 1.0},
		{ID: 3, LOF: 1.0},
	}

	// Identical finite scores give a zero spread.
	got := OutlierThreshold(scores)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected threshold 1.0, got %v", got)
	}

	// Infinite scores are excluded from the statistics.
	scores = append(scores, Score{ID: 4, LOF: math.Inf(1)})
	got = OutlierThreshold(scores)
	if math.IsInf(got, 0) {
		t.Errorf("expected a finite threshold, got %v", got)
	}

	// With no finite scores at all, everything counts as an outlier.
	got = OutlierThreshold([]Score{{ID: 1, LOF: math.Inf(1)}})
	if !math.IsInf(got, 1) {
		t.Errorf("expected +Inf threshold, got %v", got)
	}
}

func TestFormatScores(t *testing.T) {
	scores := []Score{{ID: 7, LOF: 1.5}, {ID: 8, LOF: 2.0}}

	got := FormatScores(scores, 1)
	want := "id=7 (lof=1.500) "
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
