package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Search.BM25Weight)
	assert.Equal(t, 60, cfg.Search.KRRF)
}

func TestLoadMergesYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codii.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_dir: /tmp/custom-codii\nsearch:\n  bm25_weight: 0.7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-codii", cfg.BaseDir)
	assert.Equal(t, 0.7, cfg.Search.BM25Weight)
}

func TestEnvOverridesWinOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codii.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  bm25_weight: 0.7\n"), 0o644))

	t.Setenv("CODII_BM25_WEIGHT", "0.9")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Search.BM25Weight)
}

func TestValidateRejectsInvertedChunkSizes(t *testing.T) {
	cfg := Default()
	cfg.Chunking.MinChunkSize = 2000
	cfg.Chunking.MaxChunkSize = 100
	assert.Error(t, cfg.Validate())
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	cfg := Default()
	cfg.BaseDir = "/tmp/roundtrip"

	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/roundtrip", loaded.BaseDir)
}
