package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bidwatch/cmd/bidwatch/chat"
	"bidwatch/internal/llm"
	"bidwatch/internal/prefs"
	"bidwatch/internal/session"
)

var (
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bidwatch",
	Short: "bidwatch - explore public procurement award data in your terminal",
	Long: `bidwatch loads a procurement-awards dataset (CSV) into an embedded
analytical engine and lets you search it, break it down by area and category,
link out to news coverage, and discuss it with an AI assistant.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive TUI owns the terminal; skip the operator logger.
		if cmd.Use == "bidwatch" && cmd.CalledAs() == "bidwatch" {
			return nil
		}
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(validateKeyCmd)
}

func runInteractiveChat() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	// Best effort: a fresh state dir simply has no dataset yet.
	_ = a.data.Refresh(context.Background())

	llmCfg := a.chatConfig()
	client := llm.NewClient(llmCfg)
	cfg := *a.cfg
	cfg.LLM = llmCfg
	cs := session.NewChatSession(&cfg, session.WrapClient(client), a.prefs)

	if a.cfg.Store.WatchDataset {
		var datasetPath string
		if ok, _ := a.prefs.Get(prefs.KeyDatasetPath, &datasetPath); ok && datasetPath != "" {
			_ = a.store.Watch(datasetPath, nil)
		}
	}

	program := tea.NewProgram(chat.New(cs, a.data), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
