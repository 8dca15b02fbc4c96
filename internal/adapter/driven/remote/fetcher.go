// Package remote implements the DocumentSource port over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/pwcatalog/internal/domain/port/driven"
)

// maxDocumentBytes caps how much of a response body is read.
const maxDocumentBytes = 8 << 20

// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Fetcher retrieves catalog documents over HTTP. Responses are cached in
// memory and revalidated with ETag / Last-Modified, so reloading an
// unchanged document costs a 304.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	return &Fetcher{
		client: &http.Client{
			Transport: cacheTransport,
			Timeout:   timeout,
		},
	}
}

// NewFetcherWithHTTPClient creates a Fetcher around a custom http.Client.
// This constructor is intended for testing.
func NewFetcherWithHTTPClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Source returns a DocumentSource for the document at rawURL.
func (f *Fetcher) Source(rawURL string) *Source {
	return &Source{fetcher: f, url: rawURL}
}

// Compile-time interface satisfaction check.
var _ driven.DocumentSource = (*Source)(nil)

// Source is a single document reachable over HTTP GET.
type Source struct {
	fetcher *Fetcher
	url     string
}

// Location returns the document URL.
func (s *Source) Location() string {
	return s.url
}

// Fetch downloads the document. Any status outside 2xx is an error.
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.1")

	resp, err := s.fetcher.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentBytes))
		return nil, fmt.Errorf("get %s: %w: %d", s.url, ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.url, err)
	}

	return body, nil
}
