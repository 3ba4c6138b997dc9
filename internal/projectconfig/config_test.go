package projectconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsAllDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultModel, cfg.Gateway.Model)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Gateway.EmbeddingModel)
	assert.Equal(t, DefaultBaseURL, cfg.Gateway.BaseURL)
	assert.Equal(t, DefaultAPIKeyEnv, cfg.Gateway.APIKeyEnv)
	assert.Equal(t, DefaultTimeoutSec, cfg.Gateway.TimeoutSec)

	assert.Equal(t, DefaultModelWeight, cfg.Scoring.ModelWeight)
	assert.Equal(t, DefaultHeuristicWeight, cfg.Scoring.HeuristicWeight)
	assert.Equal(t, DefaultOffTopicThreshold, cfg.Scoring.OffTopicThreshold)
	assert.Equal(t, DefaultOffTopicCeiling, cfg.Scoring.OffTopicCeiling)

	assert.Equal(t, DefaultStepUpThreshold, cfg.Difficulty.StepUpThreshold)
	assert.Equal(t, DefaultStepDownThreshold, cfg.Difficulty.StepDownThreshold)
	assert.Equal(t, DefaultTrailingWindow, cfg.Difficulty.TrailingWindow)

	assert.Equal(t, DefaultSessionTTLMin, cfg.Session.TTLMinutes)
	assert.Equal(t, DefaultCompletedRetentionMin, cfg.Session.CompletedRetentionMin)
	assert.Equal(t, DefaultSweepIntervalMin, cfg.Session.SweepIntervalMin)

	require.NotNil(t, cfg.Cache.Enabled)
	assert.True(t, *cfg.Cache.Enabled)
	assert.Equal(t, DefaultHotCacheCapacity, cfg.Cache.HotCapacity)
	assert.Equal(t, DefaultDurableCacheCapacity, cfg.Cache.DurableCapacity)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultMaxQuestions, cfg.MaxQuestions)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
}

func TestLoadNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Gateway.Model)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
gateway:
  model: local-model
  base_url: http://localhost:11434/v1
scoring:
  model_weight: 0.7
  heuristic_weight: 0.3
session:
  ttl_minutes: 30
max_questions: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".vetta.yaml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "local-model", cfg.Gateway.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Gateway.BaseURL)
	assert.Equal(t, 0.7, cfg.Scoring.ModelWeight)
	assert.Equal(t, 0.3, cfg.Scoring.HeuristicWeight)
	assert.Equal(t, 30, cfg.Session.TTLMinutes)
	assert.Equal(t, 8, cfg.MaxQuestions)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultEmbeddingModel, cfg.Gateway.EmbeddingModel)
	assert.Equal(t, DefaultOffTopicThreshold, cfg.Scoring.OffTopicThreshold)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadWalksUpToParentDir(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "a", "b")
	require.NoError(t, os.MkdirAll(child, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, ".vetta.yaml"), []byte("max_questions: 7\n"), 0644))

	cfg, err := Load(child)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxQuestions)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".vetta.yaml"), []byte("gateway: [not a map"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing .vetta.yaml")
}

func TestLoadCacheDisabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".vetta.yaml"), []byte("cache:\n  enabled: false\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.Cache.Enabled)
	assert.False(t, *cfg.Cache.Enabled)
}
