package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "cargodesk.db", cfg.DBDSN)
	assert.Empty(t, cfg.UpstreamBaseURL)
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CARGODESK_HTTP_PORT", "9999")
	t.Setenv("CARGODESK_UPSTREAM_BASE_URL", "http://upstream.local")
	t.Setenv("CARGODESK_SESSION_IDLE_TIMEOUT", "5m")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, "http://upstream.local", cfg.UpstreamBaseURL)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdle)
}

func TestLoadFileThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	yaml := "http:\n  port: 9001\ndb:\n  dsn: file.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cargodesk.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.HTTPPort)
	assert.Equal(t, "file.db", cfg.DBDSN)

	t.Setenv("CARGODESK_HTTP_PORT", "9002")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9002, cfg.HTTPPort)
	assert.Equal(t, "file.db", cfg.DBDSN)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("CARGODESK_HTTP_PORT", "70000")
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.port")
}
