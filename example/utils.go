package example

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/patrikhermansson/olof/lof"
)

// Score pairs an object id with its local outlier factor.
type Score struct {
	ID  int
	LOF float64
}

// CollectScores reads the LOF of every scored object from the result.
func CollectScores(res *lof.Result) ([]Score, error) {
	ids := res.IDs()
	scores := make([]Score, 0, len(ids))
	for _, id := range ids {
		v, err := res.LOF(id)
		if err != nil {
			return nil, err
		}
		scores = append(scores, Score{ID: id, LOF: v})
	}
	return scores, nil
}

// TopOutliers returns the n highest-scoring objects, ties broken by id.
func TopOutliers(scores []Score, n int) []Score {
	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].LOF != sorted[j].LOF {
			return sorted[i].LOF > sorted[j].LOF
		}
		return sorted[i].ID < sorted[j].ID
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// OutlierThreshold returns mean + 3*stddev over the finite scores, a common
// cutoff above which an object is flagged as an outlier. Objects with an
// infinite score always exceed it.
func OutlierThreshold(scores []Score) float64 {
	finite := make([]float64, 0, len(scores))
	for _, s := range scores {
		if !math.IsInf(s.LOF, 0) && !math.IsNaN(s.LOF) {
			finite = append(finite, s.LOF)
		}
	}
	if len(finite) == 0 {
		return math.Inf(1)
	}
	mean := stat.Mean(finite, nil)
	sd := stat.StdDev(finite, nil)
	if math.IsNaN(sd) {
		sd = 0
	}
	return mean + 3*sd
}

// FormatScores returns a formatted string of scores.
// maxResults specifies how many items to include.
func FormatScores(scores []Score, maxResults int) string {
	s := ""
	limit := maxResults
	if len(scores) < limit {
		limit = len(scores)
	}
	for i := 0; i < limit; i++ {
		s += fmt.Sprintf("id=%d (lof=%.3f) ", scores[i].ID, scores[i].LOF)
	}
	return s
}
