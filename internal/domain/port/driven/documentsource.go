package driven

import "context"

// DocumentSource defines the driven port for read-only catalog sources such
// as a static JSON file served over HTTP or a local text file. Fetch returns
// the raw document body; parsing is left to the caller.
type DocumentSource interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Location identifies the source in logs (a URL or file path).
	Location() string
}
