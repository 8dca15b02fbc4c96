package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/pwcatalog/internal/application"
	"github.com/ericfisherdev/pwcatalog/internal/config"
)

func TestViewerStrategies_Order(t *testing.T) {
	cfg := &config.Config{
		SourceURL:    "https://example.com/services.json",
		FallbackURL:  "https://example.com/services.txt",
		SourceFile:   "/srv/services.json",
		FallbackFile: "/srv/services.txt",
		FetchTimeout: time.Second,
	}

	strategies := viewerStrategies(cfg)
	require.Len(t, strategies, 4)

	var got []string
	for _, s := range strategies {
		got = append(got, s.Name+" "+s.Source.Location())
	}
	assert.Equal(t, []string{
		"json https://example.com/services.json",
		"text https://example.com/services.txt",
		"json /srv/services.json",
		"text /srv/services.txt",
	}, got)
}

func TestViewerStrategies_LocalFallback(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "services.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("Google|https://google.com\n"), 0o600))

	cfg := &config.Config{
		SourceFile:   filepath.Join(dir, "missing.json"),
		FallbackFile: textPath,
		FetchTimeout: time.Second,
	}

	catalog := application.NewViewerCatalog(viewerStrategies(cfg), application.NewQueryPipeline(language.English), slog.Default())
	require.NoError(t, catalog.Load(context.Background()))
	assert.Equal(t, 1, catalog.Len())
}

func TestNewSourceWatcher_NoFiles(t *testing.T) {
	refresher := application.NewRefreshService(nil, 0, slog.Default())
	w, err := newSourceWatcher(&config.Config{SourceURL: "https://example.com/services.json"}, refresher)
	require.NoError(t, err)
	assert.Nil(t, w)
}
