package example

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/patrikhermansson/olof/core"
	"github.com/patrikhermansson/olof/lof"
	"github.com/patrikhermansson/olof/memdb"
)

// RunOptions configures a dataset run.
type RunOptions struct {
	MinPts     int    // neighborhood size
	PageSize   int    // bytes per simulated page
	CacheSize  int    // bytes of page cache per table
	SeedSize   int    // objects scored with the initial batch run
	Distance   string // name of a core.Distances entry
	TopN       int    // outliers to print
	SkipHeader bool   // skip the first CSV row
}

// RunDataset loads points from a CSV file, scores the first SeedSize of them
// with a batch run, streams the rest through the incremental engine with a
// progress bar, and prints the top outliers together with the page-access
// counters of both tables.
func RunDataset(path string, opts RunOptions) error {
	distance, ok := core.Distances[opts.Distance]
	if !ok {
		return fmt.Errorf("unknown distance %q", opts.Distance)
	}

	fmt.Printf("Loading dataset: %s\n", path)
	points, err := LoadPoints(path, opts.SkipHeader)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("dataset %s is empty", path)
	}

	db := memdb.New(len(points[0]))
	overallStart := time.Now()

	// The batch run needs at least minPts+1 objects to score anything.
	seed := opts.SeedSize
	if seed < opts.MinPts+1 {
		seed = opts.MinPts + 1
	}
	if seed > len(points) {
		seed = len(points)
	}
	for _, p := range points[:seed] {
		if _, err := db.Insert(p); err != nil {
			return err
		}
	}

	fmt.Printf("Batch scoring %d seed points (minPts=%d, distance=%s)\n", seed, opts.MinPts, opts.Distance)
	batch, err := lof.New(db, distance, lof.Options{
		MinPts:    opts.MinPts,
		PageSize:  opts.PageSize,
		CacheSize: opts.CacheSize,
	})
	if err != nil {
		return err
	}
	res, err := batch.Run()
	if err != nil {
		return err
	}
	batchTime := time.Since(overallStart)

	engine, err := lof.NewOnline(db, distance, res)
	if err != nil {
		return err
	}

	remaining := points[seed:]
	fmt.Printf("Streaming %d points through the incremental engine\n", len(remaining))
	bar := progressbar.Default(int64(len(remaining)))
	onlineStart := time.Now()
	for _, p := range remaining {
		if _, err := engine.Insert(p); err != nil {
			return err
		}
		if err := bar.Add(1); err != nil {
			log.Debug().Err(err).Msg("progress bar update failed")
		}
	}
	onlineTime := time.Since(onlineStart)
	res.Flush()

	scores, err := CollectScores(res)
	if err != nil {
		return err
	}
	threshold := OutlierThreshold(scores)
	top := TopOutliers(scores, opts.TopN)

	fmt.Printf("Scored %d objects in %v (batch %v, incremental %v)\n",
		len(scores), time.Since(overallStart), batchTime, onlineTime)
	fmt.Printf("Outlier threshold (mean + 3*stddev): %.3f\n", threshold)
	fmt.Printf("Top %d outliers: %s\n", len(top), FormatScores(top, len(top)))

	// The online engine resets both counters at construction, so these cover
	// the incremental phase only.
	nnStats := res.NNTableStats()
	lofStats := res.LOFTableStats()
	fmt.Printf("Neighbor table pages: %d physical reads, %d physical writes (%d logical reads, %d logical writes)\n",
		nnStats.PhysicalReads, nnStats.PhysicalWrites, nnStats.LogicalReads, nnStats.LogicalWrites)
	fmt.Printf("LOF table pages:      %d physical reads, %d physical writes (%d logical reads, %d logical writes)\n",
		lofStats.PhysicalReads, lofStats.PhysicalWrites, lofStats.LogicalReads, lofStats.LogicalWrites)
	return nil
}
