// Package llm is the client for an OpenAI-compatible chat-completion
// endpoint: non-streaming completions, an SSE streaming iterator, and API-key
// validation. The model, base URL and key come from config; requests carry no
// client-side timeout (a hung chat turn is the provider's problem to
// surface), except the key-validation probe which is deliberately short.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bidwatch/internal/config"
	"bidwatch/internal/logging"
)

// Message is one entry in the chat-completion message list.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// chatRequest is the wire request body.
type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	Stream        bool           `json:"stream,omitempty"`
	MaxTokens     *int           `json:"max_tokens,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatResponse is the non-streaming wire response.
type chatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

type choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message,omitempty"`
	Delta        *Message `json:"delta,omitempty"`
	FinishReason string   `json:"finish_reason,omitempty"`
}

// streamChunk is one SSE data payload.
type streamChunk struct {
	Choices []choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

type errorResponse struct {
	Error *APIError `json:"error"`
}

// Client talks to one chat-completion provider.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a client from provider configuration.
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		// No Timeout: chat turns may legitimately stream for minutes.
		httpClient: &http.Client{},
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends a non-streaming chat completion and returns the assistant
// content plus reported usage.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, *Usage, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "Complete")
	defer timer.Stop()

	body := chatRequest{Model: c.model, Messages: messages}
	resp, err := c.post(ctx, body)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, decodeAPIError(resp.StatusCode, respBody)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message == nil {
		return "", result.Usage, fmt.Errorf("response contained no choices")
	}
	return result.Choices[0].Message.Content, result.Usage, nil
}

// CompleteWithSystem is a convenience wrapper used by the conversation
// memory manager: one system instruction plus one user payload.
func (c *Client) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	content, _, err := c.Complete(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
	return content, err
}

// Stream opens a streaming chat completion. The caller must drain or Close
// the returned stream; closing early stops consuming network data.
func (c *Client) Stream(ctx context.Context, messages []Message) (*Stream, error) {
	logging.APIDebug("streaming request: %d messages, model=%s", len(messages), c.model)

	body := chatRequest{
		Model:         c.model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}
	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, decodeAPIError(resp.StatusCode, respBody)
	}

	return newStream(resp), nil
}

// post marshals and sends one request with auth headers.
func (c *Client) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("request failed: %v", err)
		return nil, fmt.Errorf("chat request: %w", err)
	}
	return resp, nil
}

// ValidateKey probes the provider with a minimal real request. HTTP 200 and
// 429 both mean the key is live (rate limiting proves authentication
// succeeded); 401 means the key is bad; anything else surfaces the
// provider's message.
func (c *Client) ValidateKey(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	one := 1
	resp, err := c.post(ctx, chatRequest{
		Model:     c.model,
		Messages:  []Message{{Role: "user", Content: "ping"}},
		MaxTokens: &one,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusTooManyRequests:
		return nil
	case http.StatusUnauthorized:
		return ErrInvalidKey
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return decodeAPIError(resp.StatusCode, respBody)
	}
}
