package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/patrikhermansson/olof/example"
	"github.com/patrikhermansson/olof/lof"
)

var (
	rootCmd = &cobra.Command{
		Use:   "olof",
		Short: "Incremental local outlier factor scoring",
		Long: `olof scores data points by their local outlier factor, keeping the
scores current as new points stream in without recomputing from scratch.`,
	}

	runOpts example.RunOptions

	runCmd = &cobra.Command{
		Use:   "run [dataset.csv]",
		Short: "Score a CSV dataset and print the top outliers",
		Long: `Loads points from a CSV file (one point per row), scores an initial
seed of them with a batch run, streams the remaining points through the
incremental engine, and prints the top outliers together with the simulated
page-access counters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return example.RunDataset(args[0], runOpts)
		},
	}
)

func init() {
	runCmd.Flags().IntVar(&runOpts.MinPts, "minpts", 10, "neighborhood size")
	runCmd.Flags().IntVar(&runOpts.PageSize, "pagesize", lof.DefaultPageSize, "bytes per simulated page")
	runCmd.Flags().IntVar(&runOpts.CacheSize, "cachesize", lof.DefaultCacheSize, "bytes of page cache per table")
	runCmd.Flags().IntVar(&runOpts.SeedSize, "seed", 100, "points scored with the initial batch run")
	runCmd.Flags().StringVar(&runOpts.Distance, "distance", "euclidean", "distance function (euclidean, squared_euclidean, manhattan, cosine)")
	runCmd.Flags().IntVar(&runOpts.TopN, "top", 10, "number of outliers to print")
	runCmd.Flags().BoolVar(&runOpts.SkipHeader, "skip-header", false, "skip the first CSV row")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
