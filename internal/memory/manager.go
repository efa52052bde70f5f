// Package memory owns chat conversation state: the bounded message window,
// the running summary of aged-out turns, and the token accounting that
// decides when older history gets compressed. It keeps the effective context
// sent to the model within budget without the user managing it.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bidwatch/internal/config"
	"bidwatch/internal/logging"
)

// Greeting is the synthetic assistant message a cleared conversation starts
// with.
const Greeting = "Hi! I can help you explore this procurement dataset — ask me " +
	"about awardees, organizations, delivery areas, or contract amounts."

// summaryInstruction is the fixed prompt used to compress aging turns.
const summaryInstruction = "Condense the following conversation into 2-3 sentences. " +
	"Preserve named entities (awardees, organizations, areas) and the topics discussed. " +
	"Reply with the summary only."

// Completer is the slice of the AI service the memory manager needs for
// summarization.
type Completer interface {
	CompleteWithSystem(ctx context.Context, system, user string) (string, error)
}

// Manager holds aggregate conversational state. Safe for concurrent use,
// though the UI layer drives it from a single goroutine.
type Manager struct {
	mu sync.RWMutex

	cfg config.MemoryConfig

	messages         []Message // oldest first, never exceeds cfg.MaxStored
	summary          string    // overwritten on each re-summarization
	totalTokensUsed  int       // monotonic; reset only by Clear
	lastSummarizedAt time.Time
}

// NewManager creates a manager seeded with the synthetic greeting.
func NewManager(cfg config.MemoryConfig) *Manager {
	m := &Manager{cfg: cfg}
	m.reset()
	return m
}

// Append commits a new message and FIFO-trims past the retention cap.
// tokensUsed is the provider-reported usage for the turn; pass 0 when
// unknown and the estimate is used for budget accounting instead.
func (m *Manager) Append(role Role, content string, tokensUsed int) Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := newMessage(role, content, tokensUsed)
	m.messages = append(m.messages, msg)

	if tokensUsed > 0 {
		m.totalTokensUsed += tokensUsed
	} else {
		m.totalTokensUsed += EstimateTokens(content)
	}

	m.trimToCap()
	return msg
}

// trimToCap evicts the oldest messages until the stored count satisfies the
// cap. This is pure FIFO retention, independent of whether a summary covers
// the evicted turns. Summarized messages linger here until they age out.
func (m *Manager) trimToCap() {
	if m.cfg.MaxStored <= 0 || len(m.messages) <= m.cfg.MaxStored {
		return
	}
	evicted := len(m.messages) - m.cfg.MaxStored
	m.messages = append(m.messages[:0:0], m.messages[evicted:]...)
	logging.MemoryDebug("trimmed %d oldest messages (cap %d)", evicted, m.cfg.MaxStored)
}

// ShouldSummarize reports whether older turns should be compressed: the
// stored count exceeds the trigger threshold AND either no summary exists
// yet or cumulative token usage has crossed the budget fraction. Pure
// predicate, no side effects.
func (m *Manager) ShouldSummarize() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.messages) <= m.cfg.SummarizeThreshold {
		return false
	}
	if m.summary == "" {
		return true
	}
	budget := float64(m.cfg.TokenBudget) * m.cfg.BudgetFraction
	return float64(m.totalTokensUsed) > budget
}

// BuildAPIMessages assembles the ordered message list for an API call. With
// a summary present and enough stored history, the list is one synthetic
// leading entry carrying the summary plus the most recent window; otherwise
// it is simply the capped tail. Relative order always matches storage order.
func (m *Manager) BuildAPIMessages() []APIMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.summary != "" && len(m.messages) > m.cfg.RecencyCutoff {
		out := make([]APIMessage, 0, m.cfg.RecentWindow+1)
		out = append(out, APIMessage{
			Role:    RoleSystem,
			Content: "Context from earlier in this conversation: " + m.summary,
		})
		for _, msg := range tail(m.messages, m.cfg.RecentWindow) {
			out = append(out, APIMessage{Role: msg.Role, Content: msg.Content})
		}
		return out
	}

	recent := tail(m.messages, m.cfg.NoSummaryCap)
	out := make([]APIMessage, 0, len(recent))
	for _, msg := range recent {
		out = append(out, APIMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// Summarize compresses the transcript excluding the buffer-window tail into
// a fresh summary via the AI service. On failure the previous summary is
// retained and the error is logged; callers treat it as non-fatal. The
// result replaces the stored summary.
func (m *Manager) Summarize(ctx context.Context, client Completer) error {
	m.mu.RLock()
	aging := head(m.messages, len(m.messages)-m.cfg.BufferWindow)
	m.mu.RUnlock()

	if len(aging) == 0 {
		return nil
	}

	var sb strings.Builder
	for _, msg := range aging {
		if msg.Role == RoleSystem {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}

	summary, err := client.CompleteWithSystem(ctx, summaryInstruction, sb.String())
	if err != nil {
		logging.MemoryWarn("summarization failed, keeping previous summary: %v", err)
		return err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		logging.MemoryWarn("summarization returned empty text, keeping previous summary")
		return fmt.Errorf("empty summary")
	}

	m.mu.Lock()
	m.summary = summary
	m.lastSummarizedAt = time.Now()
	m.mu.Unlock()

	logging.MemoryDebug("summary refreshed over %d aging messages", len(aging))
	return nil
}

// Clear resets the conversation: one synthetic greeting, no summary, zero
// token usage.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Manager) reset() {
	m.messages = []Message{newMessage(RoleAssistant, Greeting, 0)}
	m.summary = ""
	m.totalTokensUsed = 0
	m.lastSummarizedAt = time.Time{}
}

// Messages returns a copy of the stored messages, oldest first.
func (m *Manager) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Message(nil), m.messages...)
}

// Len returns the stored message count.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Summary returns the current running summary ("" until first triggered).
func (m *Manager) Summary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary
}

// TotalTokensUsed returns the cumulative token counter.
func (m *Manager) TotalTokensUsed() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalTokensUsed
}

// LastSummarizedAt returns when the summary was last refreshed (zero time if
// never). Informational only.
func (m *Manager) LastSummarizedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSummarizedAt
}

// State is the serializable snapshot persisted between runs.
type State struct {
	Messages         []Message `json:"messages"`
	Summary          string    `json:"summary"`
	TotalTokensUsed  int       `json:"total_tokens_used"`
	LastSummarizedAt time.Time `json:"last_summarized_at"`
}

// Snapshot captures the current state for persistence.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Messages:         append([]Message(nil), m.messages...),
		Summary:          m.summary,
		TotalTokensUsed:  m.totalTokensUsed,
		LastSummarizedAt: m.lastSummarizedAt,
	}
}

// Restore replaces the current state with a persisted snapshot, re-applying
// the retention cap in case the configured cap shrank since the snapshot
// was taken. Empty snapshots leave the greeting in place.
func (m *Manager) Restore(state State) {
	if len(state.Messages) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append([]Message(nil), state.Messages...)
	m.summary = state.Summary
	m.totalTokensUsed = state.TotalTokensUsed
	m.lastSummarizedAt = state.LastSummarizedAt
	m.trimToCap()
}

// head returns the first n elements (or fewer).
func head(msgs []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	if n > len(msgs) {
		n = len(msgs)
	}
	return msgs[:n]
}

// tail returns the last n elements (or fewer).
func tail(msgs []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	if n > len(msgs) {
		n = len(msgs)
	}
	return msgs[len(msgs)-n:]
}
