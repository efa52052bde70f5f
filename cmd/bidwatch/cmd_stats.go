package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bidwatch/cmd/bidwatch/ui"
	"bidwatch/internal/format"
	"bidwatch/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summary statistics for the loaded dataset",
	RunE:  runStats,
}

var (
	topBy    string
	topLimit int
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Aggregate breakdowns: largest areas, categories or awardees",
	RunE:  runTop,
}

func init() {
	topCmd.Flags().StringVar(&topBy, "by", "area", "group by: area, category, awardee")
	topCmd.Flags().IntVar(&topLimit, "limit", 10, "number of rows")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.store.Stats(context.Background())
	if err != nil {
		return err
	}
	if stats.Rows == 0 {
		fmt.Println("No dataset loaded. Run `bidwatch load <file.csv>` first.")
		return nil
	}

	fmt.Printf("Contracts:      %s\n", format.Number(int64(stats.Rows)))
	fmt.Printf("Total value:    %s\n", format.Currency(stats.TotalValue))
	fmt.Printf("Average value:  %s\n", format.Currency(stats.AverageValue))
	fmt.Printf("Organizations:  %d\n", stats.Organizations)
	fmt.Printf("Areas:          %d\n", stats.Areas)
	fmt.Printf("Categories:     %d\n", stats.Categories)
	if stats.EarliestAward != "" {
		fmt.Printf("Award dates:    %s — %s\n",
			format.Date(stats.EarliestAward), format.Date(stats.LatestAward))
	}
	if a.data.Stale() {
		fmt.Println("\nNote: the dataset file changed on disk since it was loaded.")
	}
	return nil
}

func runTop(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	var (
		buckets []store.Bucket
		title   string
	)
	switch topBy {
	case "area":
		buckets, err = a.store.AggregateByArea(ctx, store.Filter{})
		title = "Delivery areas by total contract value"
	case "category":
		buckets, err = a.store.AggregateByCategory(ctx, store.Filter{})
		title = "Business categories by total contract value"
	case "awardee":
		buckets, err = a.store.TopAwardees(ctx, store.Filter{}, topLimit)
		title = "Awardees by total contract value"
	default:
		return fmt.Errorf("unknown --by %q (want area, category or awardee)", topBy)
	}
	if err != nil {
		return err
	}
	if len(buckets) > topLimit {
		buckets = buckets[:topLimit]
	}
	if len(buckets) == 0 {
		fmt.Println("No dataset loaded. Run `bidwatch load <file.csv>` first.")
		return nil
	}

	var grand float64
	for _, b := range buckets {
		grand += b.TotalAmount
	}

	styles := ui.DefaultStyles()
	table := ui.NewTable(title, "#", topBy, "Contracts", "Total", "Share")
	table.AlignRight(2, 3, 4)
	for i, b := range buckets {
		share := 0.0
		if grand > 0 {
			share = b.TotalAmount / grand
		}
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			truncate(b.Label, 32),
			format.Number(int64(b.Count)),
			format.Currency(b.TotalAmount),
			format.Percent(share),
		)
	}
	fmt.Print(table.View(styles))
	return nil
}
