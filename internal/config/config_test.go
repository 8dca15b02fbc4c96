package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// allConfigKeys lists every PWCATALOG_ env var that Load() reads.
var allConfigKeys = []string{
	"PWCATALOG_CONFIG",
	"PWCATALOG_LISTEN_ADDR",
	"PWCATALOG_DB_PATH",
	"PWCATALOG_STORAGE_KEY",
	"PWCATALOG_MODE",
	"PWCATALOG_SOURCE_URL",
	"PWCATALOG_FALLBACK_URL",
	"PWCATALOG_SOURCE_FILE",
	"PWCATALOG_FALLBACK_FILE",
	"PWCATALOG_WATCH",
	"PWCATALOG_FETCH_TIMEOUT",
	"PWCATALOG_REFRESH_INTERVAL",
	"PWCATALOG_LOCALE",
	"PWCATALOG_RATE_LIMIT_RPS",
	"PWCATALOG_RATE_LIMIT_BURST",
	"PWCATALOG_CORS_ORIGINS",
}

// isolateConfigEnv saves and unsets all PWCATALOG_ env vars so tests don't
// inherit values from the host environment.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "pwcatalog.db", cfg.DBPath)
	assert.Equal(t, "passwordServices.v1", cfg.StorageKey)
	assert.Equal(t, model.ModeEditable, cfg.Mode)
	assert.Equal(t, language.English, cfg.Locale)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Zero(t, cfg.RefreshInterval)
	assert.Equal(t, 20, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Empty(t, cfg.CORSOrigins)
	assert.False(t, cfg.Watch)
	assert.False(t, cfg.HasViewerSources())
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWCATALOG_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("PWCATALOG_DB_PATH", "/tmp/test.db")
	t.Setenv("PWCATALOG_MODE", "Viewer")
	t.Setenv("PWCATALOG_SOURCE_URL", "https://example.com/services.json")
	t.Setenv("PWCATALOG_FALLBACK_URL", "https://example.com/services.txt")
	t.Setenv("PWCATALOG_WATCH", "true")
	t.Setenv("PWCATALOG_LOCALE", "de-DE")
	t.Setenv("PWCATALOG_FETCH_TIMEOUT", "3s")
	t.Setenv("PWCATALOG_REFRESH_INTERVAL", "15m")
	t.Setenv("PWCATALOG_RATE_LIMIT_RPS", "5")
	t.Setenv("PWCATALOG_RATE_LIMIT_BURST", "7")
	t.Setenv("PWCATALOG_CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, model.ModeViewer, cfg.Mode)
	assert.Equal(t, "https://example.com/services.json", cfg.SourceURL)
	assert.Equal(t, "https://example.com/services.txt", cfg.FallbackURL)
	assert.True(t, cfg.Watch)
	assert.Equal(t, language.MustParse("de-DE"), cfg.Locale)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 5, cfg.RateLimitRPS)
	assert.Equal(t, 7, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.HasViewerSources())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "mode", env: map[string]string{"PWCATALOG_MODE": "kiosk"}, want: "PWCATALOG_MODE"},
		{name: "locale", env: map[string]string{"PWCATALOG_LOCALE": "not a tag!"}, want: "PWCATALOG_LOCALE"},
		{name: "timeout", env: map[string]string{"PWCATALOG_FETCH_TIMEOUT": "soon"}, want: "PWCATALOG_FETCH_TIMEOUT"},
		{name: "negative timeout", env: map[string]string{"PWCATALOG_FETCH_TIMEOUT": "-1s"}, want: "PWCATALOG_FETCH_TIMEOUT"},
		{name: "refresh interval", env: map[string]string{"PWCATALOG_REFRESH_INTERVAL": "hourly"}, want: "PWCATALOG_REFRESH_INTERVAL"},
		{name: "negative refresh interval", env: map[string]string{"PWCATALOG_REFRESH_INTERVAL": "-1m"}, want: "PWCATALOG_REFRESH_INTERVAL"},
		{name: "rate limit", env: map[string]string{"PWCATALOG_RATE_LIMIT_RPS": "0"}, want: "PWCATALOG_RATE_LIMIT_RPS"},
		{name: "viewer without sources", env: map[string]string{"PWCATALOG_MODE": "viewer"}, want: "requires at least one"},
		{name: "missing config file", env: map[string]string{"PWCATALOG_CONFIG": "/nonexistent/pwcatalog.yaml"}, want: "read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ConfigFileWithEnvOverride(t *testing.T) {
	isolateConfigEnv(t)
	path := filepath.Join(t.TempDir(), "pwcatalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: viewer\nsource_file: /srv/services.json\nlisten_addr: 0.0.0.0:7000\n"), 0o600))
	t.Setenv("PWCATALOG_CONFIG", path)
	t.Setenv("PWCATALOG_LISTEN_ADDR", "127.0.0.1:7001")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, model.ModeViewer, cfg.Mode)
	assert.Equal(t, "/srv/services.json", cfg.SourceFile)
	assert.Equal(t, "127.0.0.1:7001", cfg.ListenAddr, "environment overrides file")
}
