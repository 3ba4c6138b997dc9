// Package projectconfig provides the ProjectConfig struct and loader for
// .vetta.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for project configuration. These are the single source of
// truth; New() references them and no other code should duplicate them.
const (
	DefaultModel          = "gpt-4o"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultAPIKeyEnv      = "OPENAI_API_KEY"
	DefaultTimeoutSec     = 60

	DefaultMaxQuestions = 5

	// Scoring defaults. These are product-tuning values, deliberately
	// configurable rather than hard-coded in the evaluation engine.
	DefaultModelWeight       = 0.6
	DefaultHeuristicWeight   = 0.4
	DefaultOffTopicThreshold = 0.25
	DefaultOffTopicCeiling   = 3.0

	// Difficulty adapter defaults.
	DefaultStepUpThreshold   = 7.0
	DefaultStepDownThreshold = 4.0
	DefaultTrailingWindow    = 3

	// Session store defaults, in minutes.
	DefaultSessionTTLMin         = 60
	DefaultCompletedRetentionMin = 24 * 60
	DefaultSweepIntervalMin      = 5

	// Cache defaults.
	DefaultHotCacheCapacity     = 100
	DefaultDurableCacheCapacity = 10000
	DefaultCacheTTLMin          = 7 * 24 * 60

	DefaultServerPort = 8220
	DefaultDataDir    = ".vetta"
)

// GatewayConfig holds language-model gateway settings.
type GatewayConfig struct {
	Model          string `yaml:"model,omitempty"`
	EmbeddingModel string `yaml:"embedding_model,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"`
	APIKeyEnv      string `yaml:"api_key_env,omitempty"`
	TimeoutSec     int    `yaml:"timeout,omitempty"`
}

// ScoringConfig holds evaluation pipeline tuning values.
type ScoringConfig struct {
	ModelWeight       float64  `yaml:"model_weight,omitempty"`
	HeuristicWeight   float64  `yaml:"heuristic_weight,omitempty"`
	OffTopicThreshold float64  `yaml:"off_topic_threshold,omitempty"`
	OffTopicCeiling   float64  `yaml:"off_topic_ceiling,omitempty"`
	ExtraTerms        []string `yaml:"extra_terms,omitempty"`
}

// DifficultyConfig holds the adapter's hysteresis thresholds.
type DifficultyConfig struct {
	StepUpThreshold   float64 `yaml:"step_up_threshold,omitempty"`
	StepDownThreshold float64 `yaml:"step_down_threshold,omitempty"`
	TrailingWindow    int     `yaml:"trailing_window,omitempty"`
}

// SessionConfig holds session store expiration settings, in minutes.
type SessionConfig struct {
	TTLMinutes            int `yaml:"ttl_minutes,omitempty"`
	CompletedRetentionMin int `yaml:"completed_retention_minutes,omitempty"`
	SweepIntervalMin      int `yaml:"sweep_interval_minutes,omitempty"`
}

// CacheConfig holds cache tier capacities and TTL.
type CacheConfig struct {
	Enabled         *bool  `yaml:"enabled,omitempty"`
	HotCapacity     int    `yaml:"hot_capacity,omitempty"`
	DurableCapacity int    `yaml:"durable_capacity,omitempty"`
	TTLMinutes      int    `yaml:"ttl_minutes,omitempty"`
	Path            string `yaml:"path,omitempty"`
}

// ServerConfig holds turn-protocol HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .vetta.yaml.
type ProjectConfig struct {
	Gateway    GatewayConfig    `yaml:"gateway,omitempty"`
	Scoring    ScoringConfig    `yaml:"scoring,omitempty"`
	Difficulty DifficultyConfig `yaml:"difficulty,omitempty"`
	Session    SessionConfig    `yaml:"session,omitempty"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
	Server     ServerConfig     `yaml:"server,omitempty"`

	MaxQuestions int    `yaml:"max_questions,omitempty"`
	DataDir      string `yaml:"data_dir,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Gateway: GatewayConfig{
			Model:          DefaultModel,
			EmbeddingModel: DefaultEmbeddingModel,
			BaseURL:        DefaultBaseURL,
			APIKeyEnv:      DefaultAPIKeyEnv,
			TimeoutSec:     DefaultTimeoutSec,
		},
		Scoring: ScoringConfig{
			ModelWeight:       DefaultModelWeight,
			HeuristicWeight:   DefaultHeuristicWeight,
			OffTopicThreshold: DefaultOffTopicThreshold,
			OffTopicCeiling:   DefaultOffTopicCeiling,
		},
		Difficulty: DifficultyConfig{
			StepUpThreshold:   DefaultStepUpThreshold,
			StepDownThreshold: DefaultStepDownThreshold,
			TrailingWindow:    DefaultTrailingWindow,
		},
		Session: SessionConfig{
			TTLMinutes:            DefaultSessionTTLMin,
			CompletedRetentionMin: DefaultCompletedRetentionMin,
			SweepIntervalMin:      DefaultSweepIntervalMin,
		},
		Cache: CacheConfig{
			Enabled:         boolPtr(true),
			HotCapacity:     DefaultHotCacheCapacity,
			DurableCapacity: DefaultDurableCacheCapacity,
			TTLMinutes:      DefaultCacheTTLMin,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
		MaxQuestions: DefaultMaxQuestions,
		DataDir:      DefaultDataDir,
	}
}

// Load finds .vetta.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading .vetta.yaml: %w", err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .vetta.yaml: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .vetta.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".vetta.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero file values onto the defaults.
func mergeConfig(dst, src *ProjectConfig) {
	mergeString(&dst.Gateway.Model, src.Gateway.Model)
	mergeString(&dst.Gateway.EmbeddingModel, src.Gateway.EmbeddingModel)
	mergeString(&dst.Gateway.BaseURL, src.Gateway.BaseURL)
	mergeString(&dst.Gateway.APIKeyEnv, src.Gateway.APIKeyEnv)
	mergeInt(&dst.Gateway.TimeoutSec, src.Gateway.TimeoutSec)

	mergeFloat(&dst.Scoring.ModelWeight, src.Scoring.ModelWeight)
	mergeFloat(&dst.Scoring.HeuristicWeight, src.Scoring.HeuristicWeight)
	mergeFloat(&dst.Scoring.OffTopicThreshold, src.Scoring.OffTopicThreshold)
	mergeFloat(&dst.Scoring.OffTopicCeiling, src.Scoring.OffTopicCeiling)
	if len(src.Scoring.ExtraTerms) > 0 {
		dst.Scoring.ExtraTerms = src.Scoring.ExtraTerms
	}

	mergeFloat(&dst.Difficulty.StepUpThreshold, src.Difficulty.StepUpThreshold)
	mergeFloat(&dst.Difficulty.StepDownThreshold, src.Difficulty.StepDownThreshold)
	mergeInt(&dst.Difficulty.TrailingWindow, src.Difficulty.TrailingWindow)

	mergeInt(&dst.Session.TTLMinutes, src.Session.TTLMinutes)
	mergeInt(&dst.Session.CompletedRetentionMin, src.Session.CompletedRetentionMin)
	mergeInt(&dst.Session.SweepIntervalMin, src.Session.SweepIntervalMin)

	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	mergeInt(&dst.Cache.HotCapacity, src.Cache.HotCapacity)
	mergeInt(&dst.Cache.DurableCapacity, src.Cache.DurableCapacity)
	mergeInt(&dst.Cache.TTLMinutes, src.Cache.TTLMinutes)
	mergeString(&dst.Cache.Path, src.Cache.Path)

	mergeInt(&dst.Server.Port, src.Server.Port)
	mergeInt(&dst.MaxQuestions, src.MaxQuestions)
	mergeString(&dst.DataDir, src.DataDir)
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

func mergeFloat(dst *float64, src float64) {
	if src != 0 {
		*dst = src
	}
}

func boolPtr(b bool) *bool { return &b }
