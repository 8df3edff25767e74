package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtmp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chtmp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/mass-shootings.csv", cfg.Sources.Incidents)
	assert.Equal(t, "data/us-states.json", cfg.Sources.Boundary)
	assert.Equal(t, 960, cfg.Canvas.Width)
	assert.Equal(t, 600, cfg.Canvas.Height)
	assert.InDelta(t, 50.0, cfg.Scale.DomainMax, 0.001)
	assert.InDelta(t, 25.0, cfg.Scale.RangeMax, 0.001)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chtmp(t)

	yaml := `
sources:
  incidents: https://example.com/shootings.csv
  boundary: /srv/maps/states.geojson
canvas:
  width: 1280
  height: 800
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/shootings.csv", cfg.Sources.Incidents)
	assert.Equal(t, "/srv/maps/states.geojson", cfg.Sources.Boundary)
	assert.Equal(t, 1280, cfg.Canvas.Width)
	assert.Equal(t, 800, cfg.Canvas.Height)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.InDelta(t, 50.0, cfg.Scale.DomainMax, 0.001)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chtmp(t)

	yaml := `
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INCIDENTMAP_SERVER_PORT", "7070")
	t.Setenv("INCIDENTMAP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestDefaultMatchesLoadDefaults(t *testing.T) {
	chtmp(t)

	loaded, err := Load()
	require.NoError(t, err)

	assert.Equal(t, *loaded, Default())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.DebugLevel))
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
