package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
	"github.com/ericfisherdev/pwcatalog/internal/domain/port/driven"
)

// ErrAllSourcesFailed is returned by LoadFirst when no strategy produced a
// collection. Callers render the empty state.
var ErrAllSourcesFailed = errors.New("all catalog sources failed")

// LoadStrategy pairs a document source with the parser for its format.
type LoadStrategy struct {
	Name   string
	Source driven.DocumentSource
	Parse  func(doc []byte) (ImportResult, error)
}

// JSONStrategy loads a JSON array document normalized for read-only display.
func JSONStrategy(src driven.DocumentSource) LoadStrategy {
	return LoadStrategy{
		Name:   "json",
		Source: src,
		Parse: func(doc []byte) (ImportResult, error) {
			return ParseJSONList(doc, PolicyViewer)
		},
	}
}

// TextStrategy loads the pipe-delimited text fallback.
func TextStrategy(src driven.DocumentSource) LoadStrategy {
	return LoadStrategy{
		Name:   "text",
		Source: src,
		Parse:  ParseText,
	}
}

// LoadOutcome reports which strategy produced the collection.
type LoadOutcome struct {
	Services []model.Service
	Strategy string
	Location string
	Dropped  int
}

// LoadFirst tries each strategy in order and returns the first successful
// result. Failures are logged and the next strategy is tried; there are no
// retries.
func LoadFirst(ctx context.Context, logger *slog.Logger, strategies []LoadStrategy) (LoadOutcome, error) {
	var failures []error
	for _, st := range strategies {
		if err := ctx.Err(); err != nil {
			return LoadOutcome{}, err
		}

		outcome, err := runStrategy(ctx, st)
		if err != nil {
			logger.Warn("catalog source failed",
				"strategy", st.Name,
				"location", st.Source.Location(),
				"error", err,
			)
			failures = append(failures, err)
			continue
		}

		logger.Info("catalog source loaded",
			"strategy", st.Name,
			"location", outcome.Location,
			"services", len(outcome.Services),
			"dropped", outcome.Dropped,
		)
		return outcome, nil
	}

	empty := LoadOutcome{Services: []model.Service{}}
	if len(failures) == 0 {
		return empty, ErrAllSourcesFailed
	}
	return empty, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(failures...))
}

func runStrategy(ctx context.Context, st LoadStrategy) (LoadOutcome, error) {
	doc, err := st.Source.Fetch(ctx)
	if err != nil {
		return LoadOutcome{}, fmt.Errorf("fetch %s: %w", st.Source.Location(), err)
	}

	result, err := st.Parse(doc)
	if err != nil {
		return LoadOutcome{}, fmt.Errorf("parse %s: %w", st.Source.Location(), err)
	}

	return LoadOutcome{
		Services: result.Services,
		Strategy: st.Name,
		Location: st.Source.Location(),
		Dropped:  result.Dropped,
	}, nil
}
