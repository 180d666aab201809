package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcampos/fieldsync/internal/config"
	"github.com/dcampos/fieldsync/internal/engine"
	"github.com/dcampos/fieldsync/internal/logging"
	"github.com/dcampos/fieldsync/internal/remote"
	"github.com/dcampos/fieldsync/internal/seedguard"
	"github.com/dcampos/fieldsync/internal/store"

	// Backends register themselves with the store package.
	_ "github.com/dcampos/fieldsync/internal/store/kvfile"
	_ "github.com/dcampos/fieldsync/internal/store/sqlite"
)

// app bundles the wired components a command needs. Close when done.
type app struct {
	cfg   *config.Config
	store store.LocalStore
	orch  *engine.Orchestrator
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// loadConfig resolves the configuration without touching storage. Commands
// that only read config (config show, settings edits) use this.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openStore opens only the local store, for commands that never go online.
func openStore(cfg *config.Config) (store.LocalStore, error) {
	var guard *seedguard.Guard
	if cfg.DenyListFile != "" {
		g, err := seedguard.LoadFile(cfg.DenyListFile)
		if err != nil {
			return nil, err
		}
		guard = g
	}

	if !store.IsRegistered(store.Backend(cfg.Backend)) {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	return store.Open(store.Backend(cfg.Backend), cfg.StorePath(), guard)
}

// mustOpenLocal opens just config and store for offline commands. Network
// settings are not required; errors exit the process.
func mustOpenLocal(cmd *cobra.Command) (*config.Config, store.LocalStore) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	if err := st.Init(cmd.Context()); err != nil {
		_ = st.Close()
		fmt.Fprintf(os.Stderr, "Error initializing store: %v\n", err)
		os.Exit(1)
	}
	return cfg, st
}

// openApp wires config, logging, store, remote client and sync engine. The
// returned app owns the store handle.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.LogDir()); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	rc := remote.New(remote.Config{
		BaseURL: cfg.RemoteURL,
		Token:   cfg.Token,
		Timeout: 30 * time.Second,
		Logger:  logging.New("remote"),
	})

	checkpoint, err := engine.OpenCheckpoint(cfg.CheckpointPath())
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open sync checkpoint: %w", err)
	}

	notifier := engine.NewNotifier()
	orch := engine.NewOrchestrator(engine.Config{
		Uploader:   engine.NewUploader(st, rc, notifier, logging.New("upload")),
		Downloader: engine.NewDownloader(st, rc, notifier, logging.New("download")),
		Checkpoint: checkpoint,
		Notifier:   notifier,
		Settings:   cfg,
		Remote:     rc,
		Logger:     logging.New("sync"),
	})
	if cfg.SalesRepID != "" {
		orch.Filters = remote.Filters{SalesRepID: cfg.SalesRepID}
	}

	return &app{cfg: cfg, store: st, orch: orch}, nil
}
