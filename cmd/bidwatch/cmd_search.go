package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bidwatch/cmd/bidwatch/ui"
	"bidwatch/internal/format"
	"bidwatch/internal/store"
)

var (
	searchArea     string
	searchCategory string
	searchSort     string
	searchAsc      bool
	searchLimit    int
	searchPage     int
)

var searchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Search the loaded dataset",
	Long: `Searches award titles, awardees and organizations with
case-insensitive substring matching. Filters combine with AND.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchArea, "area", "", "filter by delivery area")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "filter by business category")
	searchCmd.Flags().StringVar(&searchSort, "sort", "amount", "sort key: amount, date, title")
	searchCmd.Flags().BoolVar(&searchAsc, "asc", false, "sort ascending")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "page size")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "1-based page number")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	page := format.Paginate(0, searchPage, searchLimit) // for the size only
	filter := store.Filter{
		Query:    strings.Join(args, " "),
		Area:     searchArea,
		Category: searchCategory,
		SortKey:  searchSort,
		SortAsc:  searchAsc,
		Limit:    page.Limit,
		Offset:   (searchPage - 1) * page.Limit,
	}

	results, err := a.store.Search(ctx, filter)
	if err != nil {
		return err
	}
	total, err := a.store.Count(ctx, filter)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("No contracts match. Load a dataset with `bidwatch load` or relax the filters.")
		return nil
	}

	styles := ui.DefaultStyles()
	table := ui.NewTable("", "Award", "Awardee", "Organization", "Area", "Amount", "Date")
	table.AlignRight(4)
	for _, c := range results {
		table.AddRow(
			truncate(c.AwardTitle, 40),
			truncate(c.Awardee, 24),
			truncate(c.Organization, 24),
			truncate(c.Area, 16),
			format.Currency(c.Amount),
			format.Date(c.AwardDate),
		)
	}
	fmt.Print(table.View(styles))

	p := format.Paginate(total, searchPage, page.Limit)
	fmt.Printf("page %d/%d · %s matching contracts\n",
		p.Number, p.TotalPages, format.Number(int64(total)))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
