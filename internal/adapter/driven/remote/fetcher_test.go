package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/services.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Google"}]`))
	}))
	defer srv.Close()

	src := NewFetcher(2 * time.Second).Source(srv.URL + "/data/services.json")

	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Google"}]`, string(body))
	assert.Equal(t, srv.URL+"/data/services.json", src.Location())
}

func TestSource_Fetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(2 * time.Second).Source(srv.URL + "/services.json").Fetch(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestSource_Fetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(time.Second).Source(url + "/services.json").Fetch(context.Background())
	assert.Error(t, err)
}

func TestSource_Fetch_RevalidatesWithETag(t *testing.T) {
	var full, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		full.Add(1)
		_, _ = w.Write([]byte("Google|https://google.com\n"))
	}))
	defer srv.Close()

	src := NewFetcher(2 * time.Second).Source(srv.URL + "/services.txt")

	first, err := src.Fetch(context.Background())
	require.NoError(t, err)
	second, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), full.Load())
	assert.Equal(t, int32(1), notModified.Load())
}

func TestNewFetcherWithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	body, err := NewFetcherWithHTTPClient(srv.Client()).Source(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}
