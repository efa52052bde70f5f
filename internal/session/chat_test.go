package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"bidwatch/internal/config"
	"bidwatch/internal/llm"
	"bidwatch/internal/memory"
	"bidwatch/internal/prefs"
)

type mockStream struct {
	deltas []string
	err    error // returned after deltas are exhausted, instead of io.EOF
	usage  *llm.Usage
	pos    int
	closed bool
}

func (m *mockStream) Next() (string, error) {
	if m.pos < len(m.deltas) {
		d := m.deltas[m.pos]
		m.pos++
		return d, nil
	}
	if m.err != nil {
		return "", m.err
	}
	return "", io.EOF
}

func (m *mockStream) Usage() *llm.Usage { return m.usage }
func (m *mockStream) Close() error      { m.closed = true; return nil }

type mockClient struct {
	StreamFunc   func(messages []llm.Message) (Stream, error)
	CompleteFunc func(system, user string) (string, error)
	StreamCalls  [][]llm.Message
}

func (m *mockClient) Stream(_ context.Context, messages []llm.Message) (Stream, error) {
	m.StreamCalls = append(m.StreamCalls, messages)
	return m.StreamFunc(messages)
}

func (m *mockClient) CompleteWithSystem(_ context.Context, system, user string) (string, error) {
	if m.CompleteFunc == nil {
		return "", errors.New("unexpected summarization call")
	}
	return m.CompleteFunc(system, user)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.LLM.SystemPrompt = "You are a test analyst."
	return cfg
}

func replyWith(deltas []string, usage *llm.Usage) *mockClient {
	return &mockClient{
		StreamFunc: func([]llm.Message) (Stream, error) {
			return &mockStream{deltas: deltas, usage: usage}, nil
		},
	}
}

func TestSendCommitsBothTurns(t *testing.T) {
	client := replyWith([]string{"The top awardee ", "is BuildRight Inc."},
		&llm.Usage{TotalTokens: 42})
	cs := NewChatSession(testConfig(), client, nil)

	msg, err := cs.Send(context.Background(), "who won the most?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Role != memory.RoleAssistant {
		t.Errorf("committed role = %s", msg.Role)
	}
	if msg.Content != "The top awardee is BuildRight Inc." {
		t.Errorf("committed content = %q", msg.Content)
	}

	msgs := cs.Messages()
	// greeting + user + assistant
	if len(msgs) != 3 {
		t.Fatalf("stored messages = %d, want 3", len(msgs))
	}
	if msgs[1].Role != memory.RoleUser || msgs[1].Content != "who won the most?" {
		t.Errorf("user turn = %+v", msgs[1])
	}
	if msgs[2].TokensUsed != 42 {
		t.Errorf("assistant TokensUsed = %d, want 42", msgs[2].TokensUsed)
	}
}

func TestSendStreamYieldsDeltasThenCommits(t *testing.T) {
	client := replyWith([]string{"a", "b", "c"}, nil)
	cs := NewChatSession(testConfig(), client, nil)

	reply, err := cs.SendStream(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendStream: %v", err)
	}

	var got []string
	for {
		delta, err := reply.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, delta)
	}
	if strings.Join(got, "") != "abc" {
		t.Errorf("deltas = %v", got)
	}
	if reply.Committed().Content != "abc" {
		t.Errorf("Committed = %q", reply.Committed().Content)
	}
	if cs.Sending() {
		t.Error("still marked sending after stream drained")
	}
}

func TestSendOpenFailureBecomesSyntheticReply(t *testing.T) {
	client := &mockClient{
		StreamFunc: func([]llm.Message) (Stream, error) {
			return nil, fmt.Errorf("dial tcp: connection refused")
		},
	}
	cs := NewChatSession(testConfig(), client, nil)

	msg, err := cs.Send(context.Background(), "hello?")
	if err != nil {
		t.Fatalf("Send must not surface delivery failures, got %v", err)
	}
	if msg.Role != memory.RoleAssistant {
		t.Errorf("synthetic role = %s", msg.Role)
	}
	if !strings.Contains(msg.Content, "couldn't reach") {
		t.Errorf("synthetic content = %q", msg.Content)
	}

	msgs := cs.Messages()
	if len(msgs) != 3 {
		t.Fatalf("stored messages = %d, want 3 (user turn must survive)", len(msgs))
	}
}

func TestSendMidStreamFailureKeepsPartialReply(t *testing.T) {
	client := &mockClient{
		StreamFunc: func([]llm.Message) (Stream, error) {
			return &mockStream{deltas: []string{"partial answer"}, err: errors.New("reset by peer")}, nil
		},
	}
	cs := NewChatSession(testConfig(), client, nil)

	msg, err := cs.Send(context.Background(), "q")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(msg.Content, "partial answer") {
		t.Errorf("partial content lost: %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "connection dropped") {
		t.Errorf("no truncation note in %q", msg.Content)
	}
}

func TestSendRejectsConcurrentTurn(t *testing.T) {
	client := replyWith([]string{"slow reply"}, nil)
	cs := NewChatSession(testConfig(), client, nil)

	first, err := cs.SendStream(context.Background(), "one")
	if err != nil {
		t.Fatalf("first SendStream: %v", err)
	}

	_, err = cs.SendStream(context.Background(), "two")
	if !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("second send error = %v, want ErrSendInFlight", err)
	}

	first.Close()
	if _, err := cs.SendStream(context.Background(), "three"); err != nil {
		t.Errorf("send after close: %v", err)
	}
}

func TestSendStreamIncludesSystemPromptFirst(t *testing.T) {
	client := replyWith([]string{"ok"}, nil)
	cs := NewChatSession(testConfig(), client, nil)

	if _, err := cs.Send(context.Background(), "question"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(client.StreamCalls) != 1 {
		t.Fatalf("stream calls = %d", len(client.StreamCalls))
	}
	sent := client.StreamCalls[0]
	if sent[0].Role != "system" || sent[0].Content != "You are a test analyst." {
		t.Errorf("first message = %+v, want configured system prompt", sent[0])
	}
	last := sent[len(sent)-1]
	if last.Role != "user" || last.Content != "question" {
		t.Errorf("last message = %+v, want the user turn", last)
	}
}

func TestSendTriggersSummarization(t *testing.T) {
	cfg := testConfig()
	cfg.Memory.SummarizeThreshold = 4
	cfg.Memory.BufferWindow = 2

	summarized := 0
	client := replyWith([]string{"reply"}, nil)
	client.CompleteFunc = func(system, user string) (string, error) {
		summarized++
		return "They discussed BuildRight Inc contracts.", nil
	}
	cs := NewChatSession(cfg, client, nil)

	for i := 0; i < 3; i++ {
		if _, err := cs.Send(context.Background(), fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if summarized == 0 {
		t.Fatal("summarization never triggered")
	}
	if cs.Summary() != "They discussed BuildRight Inc contracts." {
		t.Errorf("Summary = %q", cs.Summary())
	}
}

func TestHistoryPersistsAcrossSessions(t *testing.T) {
	ps, err := prefs.Open(t.TempDir())
	if err != nil {
		t.Fatalf("prefs.Open: %v", err)
	}

	client := replyWith([]string{"remembered reply"}, nil)
	cs := NewChatSession(testConfig(), client, ps)
	if _, err := cs.Send(context.Background(), "remember me"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	restored := NewChatSession(testConfig(), client, ps)
	msgs := restored.Messages()
	if len(msgs) != 3 {
		t.Fatalf("restored messages = %d, want 3", len(msgs))
	}
	if msgs[1].Content != "remember me" || msgs[2].Content != "remembered reply" {
		t.Errorf("restored turns wrong: %q / %q", msgs[1].Content, msgs[2].Content)
	}
}

func TestClearResetsConversationAndPersists(t *testing.T) {
	ps, err := prefs.Open(t.TempDir())
	if err != nil {
		t.Fatalf("prefs.Open: %v", err)
	}
	client := replyWith([]string{"x"}, nil)
	cs := NewChatSession(testConfig(), client, ps)
	if _, err := cs.Send(context.Background(), "something"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	cs.Clear()
	msgs := cs.Messages()
	if len(msgs) != 1 || msgs[0].Content != memory.Greeting {
		t.Fatalf("after Clear: %d messages, first %q", len(msgs), msgs[0].Content)
	}
	if cs.TokensUsed() != 0 {
		t.Errorf("TokensUsed = %d after Clear", cs.TokensUsed())
	}

	restored := NewChatSession(testConfig(), client, ps)
	if n := len(restored.Messages()); n != 1 {
		t.Errorf("restored %d messages after cleared persist, want 1", n)
	}
}
