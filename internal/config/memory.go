package config

// MemoryConfig configures the conversation memory manager. All counts are in
// messages unless noted.
type MemoryConfig struct {
	// BufferWindow is the most-recent tail always sent verbatim and never
	// folded into a summary.
	BufferWindow int `yaml:"buffer_window"`

	// SummarizeThreshold is the message count above which compression of
	// older turns is considered.
	SummarizeThreshold int `yaml:"summarize_threshold"`

	// MaxStored is the hard retention cap; the oldest messages are evicted
	// FIFO past this point.
	MaxStored int `yaml:"max_stored"`

	// TokenBudget is the context budget in tokens; BudgetFraction of it
	// being consumed re-arms summarization once a summary exists.
	TokenBudget    int     `yaml:"token_budget"`
	BudgetFraction float64 `yaml:"budget_fraction"`

	// RecencyCutoff: with a summary present and more than this many stored
	// messages, the API message list is summary + the last RecentWindow.
	RecencyCutoff int `yaml:"recency_cutoff"`
	RecentWindow  int `yaml:"recent_window"`

	// NoSummaryCap bounds the API message list when no summary exists.
	NoSummaryCap int `yaml:"no_summary_cap"`
}

// DefaultMemoryConfig returns the default memory policy.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		BufferWindow:       8,
		SummarizeThreshold: 15,
		MaxStored:          50,
		TokenBudget:        64000,
		BudgetFraction:     0.7,
		RecencyCutoff:      10,
		RecentWindow:       6,
		NoSummaryCap:       20,
	}
}
