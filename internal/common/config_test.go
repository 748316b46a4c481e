package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.95, cfg.Ingestion.NearDuplicateThreshold)
	assert.Equal(t, 0.85, cfg.Ingestion.FuzzyMatchThreshold)
	assert.Equal(t, 0.8, cfg.Ingestion.FilenameSimilarityThreshold)
	assert.Equal(t, 100, cfg.Ingestion.MinCompareLength)
}

func TestLoadFromFilesMerges(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[server]
port = 9000

[ingestion]
near_duplicate_threshold = 0.9
`), 0644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[server]
port = 9100
`), 0644))

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// Later file wins; untouched keys keep earlier values and defaults
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Ingestion.NearDuplicateThreshold)
	assert.Equal(t, 0.85, cfg.Ingestion.FuzzyMatchThreshold)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEXHOLD_SERVER_PORT", "9555")
	t.Setenv("LEXHOLD_LOG_LEVEL", "debug")
	t.Setenv("LEXHOLD_NEAR_DUPLICATE_THRESHOLD", "0.97")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 9555, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0.97, cfg.Ingestion.NearDuplicateThreshold)
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Ingestion.FuzzyMatchThreshold = 0.99
	cfg.Ingestion.NearDuplicateThreshold = 0.9

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroWeights(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Canonical.QualityWeight = 0
	cfg.Canonical.RecencyWeight = 0
	cfg.Canonical.CompletenessWeight = 0

	assert.Error(t, cfg.Validate())
}
