package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSource implements driven.DocumentSource for loader tests.
type mockSource struct {
	location string
	doc      []byte
	err      error
	calls    int
}

func (m *mockSource) Fetch(_ context.Context) ([]byte, error) {
	m.calls++
	return m.doc, m.err
}

func (m *mockSource) Location() string { return m.location }

func TestLoadFirst_PrimarySucceeds(t *testing.T) {
	primary := &mockSource{location: "services.json", doc: []byte(`[{"name":"Google","minLength":10}]`)}
	fallback := &mockSource{location: "services.txt", doc: []byte("GitHub|https://github.com")}

	outcome, err := LoadFirst(context.Background(), slog.Default(), []LoadStrategy{
		JSONStrategy(primary),
		TextStrategy(fallback),
	})

	require.NoError(t, err)
	assert.Equal(t, "json", outcome.Strategy)
	assert.Equal(t, "services.json", outcome.Location)
	assert.Equal(t, []string{"Google"}, names(outcome.Services))
	assert.Zero(t, fallback.calls, "fallback not consulted")
}

func TestLoadFirst_FallsBackOnFetchError(t *testing.T) {
	primary := &mockSource{location: "services.json", err: errors.New("status 404")}
	fallback := &mockSource{location: "services.txt", doc: []byte("# list\nGitHub|https://github.com\n")}

	outcome, err := LoadFirst(context.Background(), slog.Default(), []LoadStrategy{
		JSONStrategy(primary),
		TextStrategy(fallback),
	})

	require.NoError(t, err)
	assert.Equal(t, "text", outcome.Strategy)
	assert.Equal(t, []string{"GitHub"}, names(outcome.Services))
	assert.Equal(t, 1, primary.calls)
}

func TestLoadFirst_FallsBackOnNonArray(t *testing.T) {
	primary := &mockSource{location: "services.json", doc: []byte(`{"services":[]}`)}
	fallback := &mockSource{location: "services.txt", doc: []byte("Netflix")}

	outcome, err := LoadFirst(context.Background(), slog.Default(), []LoadStrategy{
		JSONStrategy(primary),
		TextStrategy(fallback),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Netflix"}, names(outcome.Services))
}

func TestLoadFirst_AllFail(t *testing.T) {
	primary := &mockSource{location: "services.json", err: errors.New("connection refused")}
	fallback := &mockSource{location: "services.txt", err: errors.New("connection refused")}

	outcome, err := LoadFirst(context.Background(), slog.Default(), []LoadStrategy{
		JSONStrategy(primary),
		TextStrategy(fallback),
	})

	require.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.Contains(t, err.Error(), "fetch services.txt: connection refused")
	assert.NotNil(t, outcome.Services)
	assert.Empty(t, outcome.Services)
	assert.Equal(t, 1, primary.calls, "no retries")
	assert.Equal(t, 1, fallback.calls)
}

func TestLoadFirst_NoStrategies(t *testing.T) {
	_, err := LoadFirst(context.Background(), slog.Default(), nil)
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
}

func TestLoadFirst_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &mockSource{location: "services.json", doc: []byte(`[]`)}
	_, err := LoadFirst(ctx, slog.Default(), []LoadStrategy{JSONStrategy(src)})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.calls)
}
