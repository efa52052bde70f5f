package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bidwatch/internal/news"
)

var (
	newsEngine  string
	newsInstant bool
)

var newsCmd = &cobra.Command{
	Use:   "news [keywords...]",
	Short: "Build a news-search link for a procurement topic",
	Long: `Prints a search-engine URL for news coverage of the given topic,
for opening in a browser. With --instant, also queries the DuckDuckGo
instant-answer API and prints any abstract it returns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNews,
}

func init() {
	newsCmd.Flags().StringVar(&newsEngine, "engine", "google", "search engine: google, bing, duckduckgo")
	newsCmd.Flags().BoolVar(&newsInstant, "instant", false, "also fetch a DuckDuckGo instant answer")
}

func runNews(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	engine := news.ParseEngine(newsEngine)

	fmt.Println(news.SearchURL(engine, query))

	if !newsInstant {
		return nil
	}

	answer, err := news.InstantAnswer(context.Background(), query)
	if err != nil {
		// Non-fatal: the link above still works.
		fmt.Printf("\n(instant answer unavailable: %v)\n", err)
		return nil
	}
	if answer.Empty() {
		fmt.Println("\n(no instant answer for this topic)")
		return nil
	}

	if answer.Abstract != "" {
		fmt.Printf("\n%s\n", answer.Abstract)
		if answer.Source != "" {
			fmt.Printf("— %s (%s)\n", answer.Source, answer.URL)
		}
	}
	if len(answer.Related) > 0 {
		fmt.Println("\nRelated:")
		for _, topic := range answer.Related {
			fmt.Printf("  • %s\n    %s\n", topic.Text, topic.URL)
		}
	}
	return nil
}
