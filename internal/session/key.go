package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"bidwatch/internal/config"
	"bidwatch/internal/llm"
	"bidwatch/internal/logging"
	"bidwatch/internal/prefs"
)

// Validator probes a provider with one candidate key.
type Validator interface {
	ValidateKey(ctx context.Context, timeout time.Duration) error
}

// ValidatorFactory builds a validator for a candidate key. The default wraps
// the chat client; tests substitute their own.
type ValidatorFactory func(cfg config.LLMConfig) Validator

func defaultValidatorFactory(cfg config.LLMConfig) Validator {
	return llm.NewClient(cfg)
}

// KeySession owns API-key state: the stored key, whether it has been proven
// against the provider, and the validation flow itself.
type KeySession struct {
	mu         sync.Mutex
	cfg        config.LLMConfig
	prefs      *prefs.Store
	newClient  ValidatorFactory
	key        string
	validated  bool
	lastResult error
}

// NewKeySession restores persisted key state. factory may be nil for the
// default provider-backed validator. A key arriving from the environment (set
// in cfg but absent from prefs) is used but not marked validated.
func NewKeySession(cfg config.LLMConfig, ps *prefs.Store, factory ValidatorFactory) *KeySession {
	if factory == nil {
		factory = defaultValidatorFactory
	}
	s := &KeySession{cfg: cfg, prefs: ps, newClient: factory}

	if ps != nil {
		var key string
		if ok, err := ps.Get(prefs.KeyAPIKey, &key); err == nil && ok {
			s.key = key
			var validated bool
			if ok, err := ps.Get(prefs.KeyKeyValidated, &validated); err == nil && ok {
				s.validated = validated
			}
		}
	}
	if s.key == "" && cfg.APIKey != "" {
		s.key = cfg.APIKey
	}
	return s
}

// Key returns the current key and whether it has been validated.
func (s *KeySession) Key() (key string, validated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.validated
}

// HasKey reports whether any key is available.
func (s *KeySession) HasKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != ""
}

// Validate probes the provider with candidate. On success the key and its
// validated flag are persisted; an invalid key clears the flag and the error
// is llm.ErrInvalidKey. Other provider failures leave the stored state
// untouched.
func (s *KeySession) Validate(ctx context.Context, candidate string) error {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return errors.New("session: empty API key")
	}

	cfg := s.cfg
	cfg.APIKey = candidate
	err := s.newClient(cfg).ValidateKey(ctx, cfg.ValidateTimeoutDuration())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = err

	switch {
	case err == nil:
		s.key = candidate
		s.validated = true
		s.persistLocked()
		logging.API("API key validated")
		return nil
	case errors.Is(err, llm.ErrInvalidKey):
		s.key = candidate
		s.validated = false
		s.persistLocked()
		logging.APIError("API key rejected by provider")
		return err
	default:
		// Transient provider trouble proves nothing about the key.
		logging.APIError("key validation inconclusive: %v", err)
		return err
	}
}

// Forget removes the stored key and validation flag.
func (s *KeySession) Forget() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	s.validated = false
	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.Remove(prefs.KeyAPIKey); err != nil {
		return err
	}
	return s.prefs.Remove(prefs.KeyKeyValidated)
}

// LastResult returns the outcome of the most recent validation attempt.
func (s *KeySession) LastResult() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

func (s *KeySession) persistLocked() {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.Set(prefs.KeyAPIKey, s.key); err != nil {
		logging.APIError("persist key: %v", err)
	}
	if err := s.prefs.Set(prefs.KeyKeyValidated, s.validated); err != nil {
		logging.APIError("persist validation flag: %v", err)
	}
}
