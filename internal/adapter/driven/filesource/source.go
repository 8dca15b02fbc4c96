// Package filesource implements the DocumentSource port for local files and
// watches those files for changes.
package filesource

import (
	"context"
	"fmt"
	"os"

	"github.com/ericfisherdev/pwcatalog/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DocumentSource = (*Source)(nil)

// Source reads a catalog document from the local filesystem.
type Source struct {
	path string
}

// New creates a Source for path.
func New(path string) *Source {
	return &Source{path: path}
}

// Location returns the file path.
func (s *Source) Location() string {
	return s.path
}

// Fetch reads the whole file.
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}
