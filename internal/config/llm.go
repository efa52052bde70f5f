package config

import "time"

// LLMConfig configures the chat-completion provider.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`

	// SystemPrompt is prepended to every conversation.
	SystemPrompt string `yaml:"system_prompt"`

	// ValidateTimeout bounds the key-validation probe only; chat requests
	// themselves carry no client-side timeout.
	ValidateTimeout string `yaml:"validate_timeout"`
}

// DefaultLLMConfig returns provider defaults for an OpenAI-compatible
// endpoint.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:   "deepseek-chat",
		BaseURL: "https://api.deepseek.com",
		SystemPrompt: "You are a procurement data analyst assistant. Answer questions " +
			"about Philippine government procurement contracts: awardees, organizations, " +
			"delivery areas, business categories, and contract amounts. Be concise and " +
			"cite figures from the loaded dataset when they are provided in context.",
		ValidateTimeout: "15s",
	}
}

// ValidateTimeoutDuration parses ValidateTimeout, falling back to 15s on an
// empty or malformed value.
func (c LLMConfig) ValidateTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ValidateTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}
