package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RefreshService serializes catalog reloads from every trigger: the periodic
// ticker, file change notifications and the reload endpoint.
type RefreshService struct {
	catalog  *CatalogService
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	lastAt  time.Time
	lastErr error
}

// NewRefreshService creates a RefreshService. An interval of zero disables
// the periodic refresh; Refresh still works on demand.
func NewRefreshService(catalog *CatalogService, interval time.Duration, logger *slog.Logger) *RefreshService {
	return &RefreshService{
		catalog:  catalog,
		interval: interval,
		logger:   logger,
	}
}

// Start refreshes on the configured interval until ctx is cancelled. It
// returns immediately when the interval is zero.
func (s *RefreshService) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh service stopped")
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Refresh reloads the catalog from its backing source. Concurrent calls run
// one at a time.
func (s *RefreshService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.catalog.Load(ctx)
	s.lastAt = time.Now()
	s.lastErr = err

	if err != nil {
		s.logger.Warn("catalog refresh failed", "error", err)
		return err
	}
	s.logger.Info("catalog refreshed", "services", s.catalog.Len())
	return nil
}

// LastRefresh reports when the last refresh finished and its error. The
// time is zero before the first refresh.
func (s *RefreshService) LastRefresh() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAt, s.lastErr
}
