package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned when the provider rejects the API key outright.
var ErrInvalidKey = errors.New("API key rejected by provider")

// APIError is a non-2xx response decoded from the provider's error body.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("chat API error [%d]: %s (type: %s)", e.StatusCode, e.Message, e.Type)
	}
	return fmt.Sprintf("chat API error [%d]: %s", e.StatusCode, e.Message)
}

// decodeAPIError turns a non-200 response body into an *APIError, falling
// back to the raw body when it isn't the standard error envelope.
func decodeAPIError(status int, body []byte) error {
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.StatusCode = status
		return envelope.Error
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "no response body"
	}
	return &APIError{StatusCode: status, Message: msg}
}
