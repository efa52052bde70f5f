package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// Stream iterates over the content deltas of one streaming chat completion.
// Next returns each delta in arrival order and io.EOF when the stream ends;
// the terminal event's token-usage totals are available from Usage afterward.
// Close may be called at any point to stop consuming network data.
type Stream struct {
	resp   *http.Response
	reader *bufio.Reader
	usage  *Usage
	closed bool
}

func newStream(resp *http.Response) *Stream {
	return &Stream{
		resp:   resp,
		reader: bufio.NewReader(resp.Body),
	}
}

// Next returns the next content delta. io.EOF signals a clean end of stream.
func (s *Stream) Next() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				s.Close()
				return "", io.EOF
			}
			s.Close()
			return "", err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			s.Close()
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Malformed chunks are skipped, matching provider guidance.
			continue
		}
		if chunk.Usage != nil {
			s.usage = chunk.Usage
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil && chunk.Choices[0].Delta.Content != "" {
			return chunk.Choices[0].Delta.Content, nil
		}
		// Role-only or empty delta; keep reading.
	}
}

// Usage returns the token totals from the terminal event, or nil if the
// stream ended without one (or has not ended yet).
func (s *Stream) Usage() *Usage { return s.usage }

// Close releases the underlying connection. Safe to call multiple times.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Body.Close()
}
