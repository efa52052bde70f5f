package main

import (
	"fmt"
	"path/filepath"

	"bidwatch/internal/config"
	"bidwatch/internal/logging"
	"bidwatch/internal/prefs"
	"bidwatch/internal/session"
	"bidwatch/internal/store"
)

// app wires the services every command needs: config, prefs, the contracts
// store, and the dataset session over it.
type app struct {
	cfg      *config.Config
	stateDir string
	prefs    *prefs.Store
	store    *store.Store
	data     *session.DataSession
}

func newApp() (*app, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(stateDir)
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(stateDir); err != nil {
		// Logging is best-effort; the app works without it.
		fmt.Printf("warning: logging disabled: %v\n", err)
	}

	ps, err := prefs.Open(stateDir)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Store.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(stateDir, "contracts.db")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		stateDir: stateDir,
		prefs:    ps,
		store:    st,
		data:     session.NewDataSession(st, 0),
	}, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	logging.CloseAll()
}

// chatConfig resolves the effective provider config: a key stored through
// validation wins over the config/env one.
func (a *app) chatConfig() config.LLMConfig {
	cfg := a.cfg.LLM
	keys := session.NewKeySession(cfg, a.prefs, nil)
	if key, _ := keys.Key(); key != "" {
		cfg.APIKey = key
	}
	return cfg
}
