package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/banterlab/vetta/internal/cache"
	"github.com/banterlab/vetta/internal/difficulty"
	"github.com/banterlab/vetta/internal/evaluation"
	"github.com/banterlab/vetta/internal/gateway"
	"github.com/banterlab/vetta/internal/interview"
	"github.com/banterlab/vetta/internal/projectconfig"
	"github.com/banterlab/vetta/internal/session"
)

// app bundles the wired components shared by the serve and interview
// commands.
type app struct {
	cfg       *projectconfig.ProjectConfig
	store     *session.Store
	machine   *interview.Machine
	cache     *cache.Tiered
	persister *session.Persister
	logger    *slog.Logger
}

// buildApp loads configuration and wires the full engine. With useMock set,
// the scripted generator and deterministic embedder replace the real
// gateway, so everything runs offline.
func buildApp(useMock bool) (*app, error) {
	logger := slog.Default()

	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	var tiered *cache.Tiered
	if cfg.Cache.Enabled == nil || *cfg.Cache.Enabled {
		cachePath := cfg.Cache.Path
		if cachePath == "" {
			cachePath = filepath.Join(dataDir, "cache.db")
		}
		durable, err := cache.OpenDurable(cachePath, cfg.Cache.DurableCapacity, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
		if err != nil {
			// Cache is advisory: run hot-tier-only rather than fail.
			logger.Warn("durable cache unavailable, continuing without it", "error", err)
			durable = nil
		}
		tiered = cache.NewTiered(cfg.Cache.HotCapacity, durable, logger)
	}

	persister, err := session.OpenPersister(filepath.Join(dataDir, "sessions.db"))
	if err != nil {
		logger.Warn("session persistence unavailable, sessions are memory-only", "error", err)
		persister = nil
	}

	store := session.NewStore(session.Config{
		TTL:                time.Duration(cfg.Session.TTLMinutes) * time.Minute,
		CompletedRetention: time.Duration(cfg.Session.CompletedRetentionMin) * time.Minute,
		Logger:             logger,
	}, persister)
	if n, err := store.Restore(); err != nil {
		logger.Warn("restoring persisted sessions failed", "error", err)
	} else if n > 0 {
		logger.Info("restored persisted sessions", "count", n)
	}

	var gen gateway.Generator
	var embedder gateway.Embedder
	if useMock {
		gen = gateway.NewMockGenerator()
		embedder = &gateway.MockEmbedder{}
	} else {
		apiKey := os.Getenv(cfg.Gateway.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("no API key found: set %s or run with --mock", cfg.Gateway.APIKeyEnv)
		}
		client := gateway.NewClient(gateway.ClientOptions{
			BaseURL:        cfg.Gateway.BaseURL,
			APIKey:         apiKey,
			Model:          cfg.Gateway.Model,
			EmbeddingModel: cfg.Gateway.EmbeddingModel,
			Timeout:        time.Duration(cfg.Gateway.TimeoutSec) * time.Second,
			Logger:         logger,
		})
		gen = client
		embedder = client
	}

	engine := evaluation.New(gen, embedder, tiered, evaluation.Config{
		ModelWeight:       cfg.Scoring.ModelWeight,
		HeuristicWeight:   cfg.Scoring.HeuristicWeight,
		OffTopicThreshold: cfg.Scoring.OffTopicThreshold,
		OffTopicCeiling:   cfg.Scoring.OffTopicCeiling,
		ExtraTerms:        cfg.Scoring.ExtraTerms,
	}, logger)

	adapter := difficulty.NewAdapter(
		cfg.Difficulty.StepUpThreshold,
		cfg.Difficulty.StepDownThreshold,
		cfg.Difficulty.TrailingWindow,
	)

	machine := interview.NewMachine(store, gen, engine, adapter, tiered, interview.Config{
		DefaultMaxQuestions: cfg.MaxQuestions,
		Logger:              logger,
	})

	return &app{
		cfg:       cfg,
		store:     store,
		machine:   machine,
		cache:     tiered,
		persister: persister,
		logger:    logger,
	}, nil
}

// close releases the app's storage handles.
func (a *app) close() {
	if a.cache != nil {
		a.cache.Close() //nolint:errcheck
	}
	if a.persister != nil {
		a.persister.Close() //nolint:errcheck
	}
}

// sweepInterval returns the configured background sweep interval.
func (a *app) sweepInterval() time.Duration {
	return time.Duration(a.cfg.Session.SweepIntervalMin) * time.Minute
}
