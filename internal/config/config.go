// Package config loads application configuration from environment variables
// and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// EnvPrefix is prepended to every environment variable Load reads.
const EnvPrefix = "PWCATALOG"

// Config holds the application configuration.
type Config struct {
	ListenAddr string
	DBPath     string
	StorageKey string
	Mode       model.CatalogMode

	// Viewer sources, tried in order: SourceURL, FallbackURL, SourceFile, FallbackFile.
	SourceURL    string
	FallbackURL  string
	SourceFile   string
	FallbackFile string
	Watch        bool
	FetchTimeout time.Duration

	// RefreshInterval re-runs the viewer source chain periodically. Zero
	// disables it.
	RefreshInterval time.Duration

	Locale language.Tag

	RateLimitRPS   int
	RateLimitBurst int
	CORSOrigins    []string
}

// HasViewerSources reports whether at least one viewer source is configured.
func (c *Config) HasViewerSources() bool {
	return c.SourceURL != "" || c.FallbackURL != "" || c.SourceFile != "" || c.FallbackFile != ""
}

// Load reads configuration from PWCATALOG_* environment variables. When
// PWCATALOG_CONFIG names a file (yaml, toml or json), its keys are read first
// and environment variables override them.
//
// Defaults: LISTEN_ADDR 127.0.0.1:8080, DB_PATH pwcatalog.db, MODE editable,
// STORAGE_KEY passwordServices.v1, LOCALE en, FETCH_TIMEOUT 10s,
// REFRESH_INTERVAL 0 (disabled), RATE_LIMIT_RPS 20, RATE_LIMIT_BURST 40.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("db_path", "pwcatalog.db")
	v.SetDefault("storage_key", "passwordServices.v1")
	v.SetDefault("mode", string(model.ModeEditable))
	v.SetDefault("source_url", "")
	v.SetDefault("fallback_url", "")
	v.SetDefault("source_file", "")
	v.SetDefault("fallback_file", "")
	v.SetDefault("watch", false)
	v.SetDefault("fetch_timeout", "10s")
	v.SetDefault("refresh_interval", "0s")
	v.SetDefault("locale", "en")
	v.SetDefault("rate_limit_rps", 20)
	v.SetDefault("rate_limit_burst", 40)
	v.SetDefault("cors_origins", "")

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	mode := model.CatalogMode(strings.ToLower(strings.TrimSpace(v.GetString("mode"))))
	if mode != model.ModeEditable && mode != model.ModeViewer {
		return nil, fmt.Errorf("%s_MODE must be %q or %q, got %q", EnvPrefix, model.ModeEditable, model.ModeViewer, mode)
	}

	rawLocale := v.GetString("locale")
	locale, err := language.Parse(rawLocale)
	if err != nil {
		return nil, fmt.Errorf("%s_LOCALE has invalid language tag %q: %w", EnvPrefix, rawLocale, err)
	}

	rawTimeout := v.GetString("fetch_timeout")
	fetchTimeout, err := time.ParseDuration(rawTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s_FETCH_TIMEOUT has invalid duration %q: %w", EnvPrefix, rawTimeout, err)
	}
	if fetchTimeout <= 0 {
		return nil, fmt.Errorf("%s_FETCH_TIMEOUT must be positive, got %s", EnvPrefix, fetchTimeout)
	}

	rawInterval := v.GetString("refresh_interval")
	refreshInterval, err := time.ParseDuration(rawInterval)
	if err != nil {
		return nil, fmt.Errorf("%s_REFRESH_INTERVAL has invalid duration %q: %w", EnvPrefix, rawInterval, err)
	}
	if refreshInterval < 0 {
		return nil, fmt.Errorf("%s_REFRESH_INTERVAL must not be negative, got %s", EnvPrefix, refreshInterval)
	}

	rps := v.GetInt("rate_limit_rps")
	burst := v.GetInt("rate_limit_burst")
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("%s_RATE_LIMIT_RPS and %s_RATE_LIMIT_BURST must be positive integers", EnvPrefix, EnvPrefix)
	}

	cfg := &Config{
		ListenAddr:      v.GetString("listen_addr"),
		DBPath:          v.GetString("db_path"),
		StorageKey:      v.GetString("storage_key"),
		Mode:            mode,
		SourceURL:       strings.TrimSpace(v.GetString("source_url")),
		FallbackURL:     strings.TrimSpace(v.GetString("fallback_url")),
		SourceFile:      strings.TrimSpace(v.GetString("source_file")),
		FallbackFile:    strings.TrimSpace(v.GetString("fallback_file")),
		Watch:           v.GetBool("watch"),
		FetchTimeout:    fetchTimeout,
		RefreshInterval: refreshInterval,
		Locale:          locale,
		RateLimitRPS:    rps,
		RateLimitBurst:  burst,
		CORSOrigins:     splitList(v.GetString("cors_origins")),
	}

	if cfg.Mode == model.ModeViewer && !cfg.HasViewerSources() {
		return nil, fmt.Errorf("%s_MODE=viewer requires at least one of %s_SOURCE_URL, %s_FALLBACK_URL, %s_SOURCE_FILE, %s_FALLBACK_FILE",
			EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
	}

	return cfg, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
