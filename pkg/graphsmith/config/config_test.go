package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigAccessors(t *testing.T) {
	cfg := New(map[string]any{
		"name":     "graphsmith",
		"timeout":  "30s",
		"refine":   true,
		"limit":    42,
		"services": []any{"slack", "github"},
	})

	assert.Equal(t, "graphsmith", cfg.String("name", "fallback"))
	assert.Equal(t, "fallback", cfg.String("missing", "fallback"))
	assert.Equal(t, 30*time.Second, cfg.Duration("timeout", time.Minute))
	assert.Equal(t, time.Minute, cfg.Duration("missing", time.Minute))
	assert.True(t, cfg.Bool("refine", false))
	assert.False(t, cfg.Bool("missing", false))
	assert.Equal(t, 42, cfg.Int("limit", 0))
	assert.Equal(t, []string{"slack", "github"}, cfg.StringSlice("services", nil))
	assert.True(t, cfg.Has("name"))
	assert.False(t, cfg.Has("missing"))
}

func TestFromYAML(t *testing.T) {
	data := []byte(`
claude:
  model: opus
pipeline:
  stage_timeout: 90s
  refine: true
`)
	cfg, err := FromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "opus", cfg.String("claude.model", ""))
	assert.Equal(t, 90*time.Second, cfg.Duration("pipeline.stage_timeout", 0))
	assert.True(t, cfg.Bool("pipeline.refine", false))
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := FromYAML([]byte("{not yaml"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"history": {"path": "runs.db"}}`))
	require.NoError(t, err)
	assert.Equal(t, "runs.db", cfg.String("history.path", ""))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("claude:\n  path: /usr/bin/claude\n"), 0o644))

	cfg, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/claude", cfg.String("claude.path", ""))
}

func TestFromFile_Missing(t *testing.T) {
	_, err := FromFile("/does/not/exist.yaml")
	assert.Error(t, err)
}
