package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"bidwatch/internal/config"
	"bidwatch/internal/llm"
	"bidwatch/internal/logging"
	"bidwatch/internal/memory"
	"bidwatch/internal/prefs"
)

// ErrSendInFlight is returned when a send starts while another is running.
// The view layer disables input during a turn, so hitting this indicates a
// driver bug rather than a user action.
var ErrSendInFlight = errors.New("session: a send is already in flight")

// unavailableReply is the synthetic assistant turn committed when the chat
// service cannot be reached. Delivery failures are conversation content, not
// application errors.
const unavailableReply = "I couldn't reach the assistant service just now. " +
	"Please check your connection and API key, then try again."

// Stream is the pull iterator for one assistant reply. Next returns deltas
// until io.EOF.
type Stream interface {
	Next() (string, error)
	Usage() *llm.Usage
	Close() error
}

// Client is the slice of the AI service the chat session needs.
type Client interface {
	Stream(ctx context.Context, messages []llm.Message) (Stream, error)
	CompleteWithSystem(ctx context.Context, system, user string) (string, error)
}

type clientAdapter struct{ c *llm.Client }

func (a clientAdapter) Stream(ctx context.Context, messages []llm.Message) (Stream, error) {
	s, err := a.c.Stream(ctx, messages)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a clientAdapter) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	return a.c.CompleteWithSystem(ctx, system, user)
}

// WrapClient adapts the concrete chat client to the session's interface.
func WrapClient(c *llm.Client) Client { return clientAdapter{c} }

// ChatSession owns one conversation: the memory manager, the chat client,
// and history persistence.
type ChatSession struct {
	mu      sync.Mutex
	cfg     config.LLMConfig
	client  Client
	manager *memory.Manager
	prefs   *prefs.Store
	sending bool
}

// NewChatSession builds a session and restores any persisted conversation
// history. prefs may be nil, in which case nothing is persisted.
func NewChatSession(cfg *config.Config, client Client, ps *prefs.Store) *ChatSession {
	s := &ChatSession{
		cfg:     cfg.LLM,
		client:  client,
		manager: memory.NewManager(cfg.Memory),
		prefs:   ps,
	}
	if ps != nil {
		var state memory.State
		if ok, err := ps.Get(prefs.KeyChatHistory, &state); err != nil {
			logging.ChatError("restore history: %v", err)
		} else if ok {
			s.manager.Restore(state)
			logging.Chat("restored %d messages from history", s.manager.Len())
		}
	}
	return s
}

// Send runs one complete chat turn and returns the committed assistant
// message. Delivery failures still commit a turn; the error return covers
// only session-state problems such as a concurrent send.
func (s *ChatSession) Send(ctx context.Context, input string) (memory.Message, error) {
	reply, err := s.SendStream(ctx, input)
	if err != nil {
		return memory.Message{}, err
	}
	for {
		if _, err := reply.Next(); err == io.EOF {
			break
		} else if err != nil {
			return memory.Message{}, err
		}
	}
	return reply.Committed(), nil
}

// SendStream appends the user turn and opens the assistant reply as a pull
// stream. The caller drains it with Next until io.EOF; the finalized
// assistant message is committed to memory exactly once, when the stream
// ends or fails.
func (s *ChatSession) SendStream(ctx context.Context, input string) (*ReplyStream, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("session: empty input")
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}
	s.sending = true
	s.mu.Unlock()

	s.manager.Append(memory.RoleUser, input, 0)

	messages := s.apiMessages()
	inner, err := s.client.Stream(ctx, messages)
	if err != nil {
		logging.ChatError("open reply stream: %v", err)
		r := &ReplyStream{session: s, ctx: ctx, fallback: unavailableReply}
		return r, nil
	}

	logging.ChatDebug("reply stream open: %d messages sent", len(messages))
	return &ReplyStream{session: s, ctx: ctx, inner: inner}, nil
}

// apiMessages renders the configured system prompt plus the manager's
// windowed view as wire messages.
func (s *ChatSession) apiMessages() []llm.Message {
	window := s.manager.BuildAPIMessages()
	out := make([]llm.Message, 0, len(window)+1)
	if s.cfg.SystemPrompt != "" {
		out = append(out, llm.Message{Role: "system", Content: s.cfg.SystemPrompt})
	}
	for _, m := range window {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// finishTurn commits the assistant message, runs triggered summarization,
// and persists history. Called exactly once per turn.
func (s *ChatSession) finishTurn(ctx context.Context, content string, usage *llm.Usage) memory.Message {
	tokens := 0
	if usage != nil {
		tokens = usage.TotalTokens
	}
	msg := s.manager.Append(memory.RoleAssistant, content, tokens)

	if s.manager.ShouldSummarize() {
		// Failure keeps the previous summary; nothing for the caller to do.
		if err := s.manager.Summarize(ctx, s.client); err != nil {
			logging.MemoryWarn("summarization skipped: %v", err)
		}
	}

	s.persist()

	s.mu.Lock()
	s.sending = false
	s.mu.Unlock()
	return msg
}

func (s *ChatSession) persist() {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.Set(prefs.KeyChatHistory, s.manager.Snapshot()); err != nil {
		logging.ChatError("persist history: %v", err)
	}
}

// Clear resets the conversation to the greeting and persists the empty
// state.
func (s *ChatSession) Clear() {
	s.manager.Clear()
	s.persist()
}

// Messages returns the stored conversation, oldest first.
func (s *ChatSession) Messages() []memory.Message { return s.manager.Messages() }

// Summary returns the running conversation summary.
func (s *ChatSession) Summary() string { return s.manager.Summary() }

// TokensUsed returns the cumulative token counter.
func (s *ChatSession) TokensUsed() int { return s.manager.TotalTokensUsed() }

// Sending reports whether a turn is currently in flight.
func (s *ChatSession) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// ReplyStream adapts one assistant reply into a pull iterator that commits
// the finalized message when iteration ends. A delivery failure mid-stream
// surfaces the synthetic fallback text as a final delta instead of an error.
type ReplyStream struct {
	session *ChatSession
	ctx     context.Context
	inner   Stream

	buf       strings.Builder
	fallback  string // non-empty when the turn already failed
	done      bool
	committed memory.Message
}

// Next returns the next delta, or io.EOF once the reply is complete and
// committed.
func (r *ReplyStream) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}

	// Turn failed at open (or mid-stream on a previous call): emit the
	// fallback text once, commit, and end.
	if r.inner == nil || r.fallback != "" {
		delta := r.fallback
		r.buf.WriteString(delta)
		r.finish(nil)
		return delta, nil
	}

	delta, err := r.inner.Next()
	if err == io.EOF {
		r.finish(r.inner.Usage())
		return "", io.EOF
	}
	if err != nil {
		logging.ChatError("reply stream broke: %v", err)
		r.inner.Close()
		if r.buf.Len() == 0 {
			r.fallback = unavailableReply
		} else {
			r.fallback = "\n\n(The connection dropped before the reply finished.)"
		}
		return r.Next()
	}

	r.buf.WriteString(delta)
	return delta, nil
}

// finish commits the accumulated reply exactly once.
func (r *ReplyStream) finish(usage *llm.Usage) {
	if r.done {
		return
	}
	r.done = true
	if r.inner != nil {
		r.inner.Close()
	}
	content := r.buf.String()
	if strings.TrimSpace(content) == "" {
		content = unavailableReply
	}
	r.committed = r.session.finishTurn(r.ctx, content, usage)
}

// Close abandons the stream, committing whatever was accumulated so far.
func (r *ReplyStream) Close() error {
	if !r.done {
		r.finish(nil)
	}
	return nil
}

// Committed returns the finalized assistant message once the stream has
// ended.
func (r *ReplyStream) Committed() memory.Message { return r.committed }

// Text returns the accumulated reply text so far.
func (r *ReplyStream) Text() string { return r.buf.String() }
