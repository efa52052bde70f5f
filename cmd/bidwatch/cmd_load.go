package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bidwatch/internal/format"
	"bidwatch/internal/prefs"
)

var loadCmd = &cobra.Command{
	Use:   "load [dataset.csv]",
	Short: "Ingest a procurement-awards CSV into the local store",
	Long: `Loads a CSV export of procurement awards, replacing any previously
loaded dataset. Compressed exports (gzip, zstd, bzip2, xz, zip) are rejected;
re-export the file uncompressed.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	path := args[0]
	logger.Info("loading dataset", zap.String("path", path))

	rows, err := a.data.Load(context.Background(), path)
	if err != nil {
		return err
	}
	if err := a.prefs.Set(prefs.KeyDatasetPath, path); err != nil {
		logger.Warn("could not remember dataset path", zap.Error(err))
	}

	stats := a.data.Stats()
	fmt.Printf("Loaded %s contracts from %s\n", format.Number(int64(rows)), path)
	fmt.Printf("  total value:   %s\n", format.Currency(stats.TotalValue))
	fmt.Printf("  average value: %s\n", format.Currency(stats.AverageValue))
	fmt.Printf("  organizations: %d   areas: %d   categories: %d\n",
		stats.Organizations, stats.Areas, stats.Categories)
	if stats.EarliestAward != "" {
		fmt.Printf("  award dates:   %s — %s\n",
			format.Date(stats.EarliestAward), format.Date(stats.LatestAward))
	}
	return nil
}
