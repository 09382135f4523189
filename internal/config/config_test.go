package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes to dir for the duration of the test (t.Chdir needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no config file is picked up.
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "leads.sqlite", cfg.Store.Path)
	assert.Equal(t, 15, cfg.Google.MaxPages)
	assert.Equal(t, 2, cfg.Google.PageSleepSecs)
	assert.Equal(t, 8, cfg.Google.Workers)
	assert.Equal(t, 70, cfg.Yelp.MatchThreshold)
	assert.Equal(t, 5, cfg.Yelp.MaxCandidates)
	assert.Equal(t, "WA", cfg.Fetch.State)
	assert.InDelta(t, 47.0379, cfg.Fetch.RefLat, 1e-6)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEADSCAN_GOOGLE_KEY", "env-google-key")
	t.Setenv("LEADSCAN_YELP_MATCH_THRESHOLD", "85")
	t.Setenv("LEADSCAN_STORE_PATH", "/tmp/other.sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-google-key", cfg.Google.Key)
	assert.Equal(t, 85, cfg.Yelp.MatchThreshold)
	assert.Equal(t, "/tmp/other.sqlite", cfg.Store.Path)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(`
google:
  max_pages: 3
fetch:
  zips:
    - "98501"
    - "98512"
`), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Google.MaxPages)
	assert.Equal(t, []string{"98501", "98512"}, cfg.Fetch.Zips)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level"}))
}
