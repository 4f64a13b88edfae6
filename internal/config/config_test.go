package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"TEATOK_API_URL", "TEATOK_SOCKET_URL", "TEATOK_ENV", "TEATOK_DEBUG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, profile, content string) {
	t.Helper()
	dir := Dir(profile)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
}

func TestLoadDefaultsToDevURL(t *testing.T) {
	isolate(t)

	cfg, err := Load("default")
	require.NoError(t, err)
	assert.Equal(t, DevAPIURL, cfg.APIURL)
	assert.False(t, cfg.Debug)
}

func TestLoadProductionDefault(t *testing.T) {
	isolate(t)
	t.Setenv("TEATOK_ENV", "production")

	cfg, err := Load("default")
	require.NoError(t, err)
	assert.Equal(t, ProductionAPIURL, cfg.APIURL)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	writeConfig(t, "default", `api_url = "http://from-file:9000"`)
	t.Setenv("TEATOK_API_URL", "http://from-env:8000")

	cfg, err := Load("default")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8000", cfg.APIURL)
}

func TestFileValuesLoaded(t *testing.T) {
	isolate(t)
	writeConfig(t, "work", `
api_url = "http://backend:3000/"
debug = true
`)

	cfg, err := Load("work")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:3000", cfg.APIURL, "trailing slash is stripped")
	assert.True(t, cfg.Debug)
}

func TestResolveSocketURLDerived(t *testing.T) {
	tests := []struct {
		apiURL string
		want   string
	}{
		{"http://localhost:5000", "ws://localhost:5000/ws"},
		{"https://api.teatok.app", "wss://api.teatok.app/ws"},
	}
	for _, tt := range tests {
		cfg := &Config{APIURL: tt.apiURL}
		assert.Equal(t, tt.want, cfg.ResolveSocketURL())
	}
}

func TestResolveSocketURLExplicit(t *testing.T) {
	cfg := &Config{APIURL: "http://localhost:5000", SocketURL: "wss://sockets.example.com/chat"}
	assert.Equal(t, "wss://sockets.example.com/chat", cfg.ResolveSocketURL())
}

func TestProfileDirsAreSeparate(t *testing.T) {
	isolate(t)
	assert.NotEqual(t, Dir("default"), Dir("work"))
	assert.Equal(t, "work", filepath.Base(Dir("work")))
}
