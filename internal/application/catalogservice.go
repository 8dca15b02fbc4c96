// Package application contains the catalog use cases: record normalization,
// the collection store, the query pipeline, import/export and source loading.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
	"github.com/ericfisherdev/pwcatalog/internal/domain/port/driven"
)

// DefaultStorageKey is the blob key the editable catalog persists under.
const DefaultStorageKey = "passwordServices.v1"

// Sentinel errors returned by CatalogService.
var (
	// ErrServiceNotFound indicates no service has the requested id.
	ErrServiceNotFound = errors.New("service not found")

	// ErrReadOnly indicates a mutation was attempted on a viewer catalog.
	ErrReadOnly = errors.New("catalog is read-only")
)

// CatalogService owns the in-memory collection and is the single writer for
// it within a process. Editable catalogs flush every mutation to the
// BlobStore before the new collection becomes visible, so a failed write
// leaves the previous state in place. Writes carry the blob revision last
// read, so other processes sharing the database (pwcatalogctl) are never
// overwritten. Viewer catalogs are loaded from a chain of document sources and
// reject all mutations.
type CatalogService struct {
	mu       sync.RWMutex
	services []model.Service

	mode       model.CatalogMode
	blobs      driven.BlobStore
	storageKey string
	revision   int64
	strategies []LoadStrategy

	pipeline *QueryPipeline
	logger   *slog.Logger
}

// NewEditableCatalog creates a CatalogService persisted as a JSON blob under
// storageKey. An empty storageKey uses DefaultStorageKey.
func NewEditableCatalog(blobs driven.BlobStore, storageKey string, pipeline *QueryPipeline, logger *slog.Logger) *CatalogService {
	if storageKey == "" {
		storageKey = DefaultStorageKey
	}
	return &CatalogService{
		services:   []model.Service{},
		mode:       model.ModeEditable,
		blobs:      blobs,
		storageKey: storageKey,
		pipeline:   pipeline,
		logger:     logger,
	}
}

// NewViewerCatalog creates a read-only CatalogService fed by strategies,
// tried in order on every Load.
func NewViewerCatalog(strategies []LoadStrategy, pipeline *QueryPipeline, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		services:   []model.Service{},
		mode:       model.ModeViewer,
		strategies: strategies,
		pipeline:   pipeline,
		logger:     logger,
	}
}

// Mode reports whether the catalog is editable or a viewer.
func (s *CatalogService) Mode() model.CatalogMode {
	return s.mode
}

// ReadOnly reports whether mutations are rejected.
func (s *CatalogService) ReadOnly() bool {
	return s.mode == model.ModeViewer
}

// Load (re)populates the collection from its backing source. An editable
// catalog with nothing saved, or with an unparseable blob, falls back to the
// built-in sample data. Any other read error leaves the current collection
// in place and is returned. A viewer catalog whose sources all fail is left
// empty and ErrAllSourcesFailed is returned for the caller to log; a
// cancelled ctx keeps the previous collection.
func (s *CatalogService) Load(ctx context.Context) error {
	if s.ReadOnly() {
		outcome, err := LoadFirst(ctx, s.logger, s.strategies)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("load catalog: %w", ctxErr)
		}
		s.mu.Lock()
		s.services = outcome.Services
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

// reloadLocked replaces the collection with the saved blob.
// Callers must hold s.mu for writing.
func (s *CatalogService) reloadLocked(ctx context.Context) error {
	blob, err := s.blobs.Get(ctx, s.storageKey)
	if errors.Is(err, driven.ErrBlobNotFound) {
		s.logger.Info("no saved catalog, using sample data", "key", s.storageKey)
		s.services = SampleServices()
		s.revision = 0
		return nil
	}
	if err != nil {
		s.logger.Warn("read saved catalog failed, keeping current collection", "key", s.storageKey, "error", err)
		return fmt.Errorf("load catalog: %w", err)
	}

	// An unparseable blob keeps its revision so the next mutation replaces it.
	s.revision = blob.Revision
	result, err := ParseJSONList([]byte(blob.Value), PolicyEditable)
	if err != nil {
		s.logger.Warn("saved catalog unreadable, using sample data", "key", s.storageKey, "error", err)
		s.services = SampleServices()
		return nil
	}
	if result.Dropped > 0 {
		s.logger.Warn("dropped invalid saved services", "key", s.storageKey, "dropped", result.Dropped)
	}

	s.logger.Info("saved catalog loaded", "key", s.storageKey, "services", len(result.Services), "revision", blob.Revision)
	s.services = result.Services
	return nil
}

// List returns a copy of the collection in store order.
func (s *CatalogService) List() []model.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneServices(s.services)
}

// Len returns the number of stored services.
func (s *CatalogService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.services)
}

// Get returns the service with the given id or ErrServiceNotFound.
func (s *CatalogService) Get(id string) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOf(s.services, id)
	if idx < 0 {
		return model.Service{}, fmt.Errorf("get service %s: %w", id, ErrServiceNotFound)
	}
	return s.services[idx].Clone(), nil
}

// Create normalizes raw with PolicyEditable and appends it. Validation
// failures are returned as *model.ValidationError and leave the collection
// unchanged.
func (s *CatalogService) Create(ctx context.Context, raw map[string]any) (model.Service, error) {
	if s.ReadOnly() {
		return model.Service{}, ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var svc model.Service
	err := s.mutateLocked(ctx, func(current []model.Service) ([]model.Service, error) {
		var err error
		svc, err = Normalize(raw, PolicyEditable, takenBy(current, ""))
		if err != nil {
			return nil, err
		}
		return append(cloneServices(current), svc), nil
	})
	if err != nil {
		return model.Service{}, err
	}
	return svc.Clone(), nil
}

// Update replaces every field of the service with the given id except the
// id itself.
func (s *CatalogService) Update(ctx context.Context, id string, raw map[string]any) (model.Service, error) {
	if s.ReadOnly() {
		return model.Service{}, ErrReadOnly
	}

	fields := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		fields[k] = v
	}
	fields["id"] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	var svc model.Service
	err := s.mutateLocked(ctx, func(current []model.Service) ([]model.Service, error) {
		idx := indexOf(current, id)
		if idx < 0 {
			return nil, fmt.Errorf("update service %s: %w", id, ErrServiceNotFound)
		}

		var err error
		svc, err = Normalize(fields, PolicyEditable, takenBy(current, id))
		if err != nil {
			return nil, err
		}

		next := cloneServices(current)
		next[idx] = svc
		return next, nil
	})
	if err != nil {
		return model.Service{}, err
	}
	return svc.Clone(), nil
}

// Delete removes the service with the given id.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if s.ReadOnly() {
		return ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateLocked(ctx, func(current []model.Service) ([]model.Service, error) {
		idx := indexOf(current, id)
		if idx < 0 {
			return nil, fmt.Errorf("delete service %s: %w", id, ErrServiceNotFound)
		}

		next := make([]model.Service, 0, len(current)-1)
		next = append(next, current[:idx]...)
		next = append(next, current[idx+1:]...)
		return next, nil
	})
}

// Clear removes every service.
func (s *CatalogService) Clear(ctx context.Context) error {
	return s.ReplaceAll(ctx, []model.Service{})
}

// Reset deletes the saved collection and reverts to the built-in sample
// data. The samples are not saved until the next mutation.
func (s *CatalogService) Reset(ctx context.Context) error {
	if s.ReadOnly() {
		return ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blobs.Delete(ctx, s.storageKey); err != nil {
		return fmt.Errorf("reset catalog: %w", err)
	}
	s.services = SampleServices()
	s.revision = 0
	s.logger.Info("catalog reset to sample data", "key", s.storageKey)
	return nil
}

// ReplaceAll swaps the whole collection. Duplicate ids are regenerated so
// the collection keeps unique ids.
func (s *CatalogService) ReplaceAll(ctx context.Context, services []model.Service) error {
	if s.ReadOnly() {
		return ErrReadOnly
	}

	next := cloneServices(services)
	seen := make(map[string]bool, len(next))
	for i := range next {
		if next[i].ID == "" || seen[next[i].ID] {
			next[i].ID = newID(func(id string) bool { return seen[id] })
		}
		seen[next[i].ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(ctx, next)
}

// Import parses a JSON document and replaces the collection with its valid
// records. A document whose top-level value is not an array aborts the
// import without touching the collection.
func (s *CatalogService) Import(ctx context.Context, doc []byte) (ImportResult, error) {
	if s.ReadOnly() {
		return ImportResult{}, ErrReadOnly
	}

	result, err := ParseJSONList(doc, PolicyEditable)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.replaceLocked(ctx, result.Services); err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("catalog imported", "services", len(result.Services), "dropped", result.Dropped)
	return result, nil
}

// Export serializes the collection in store order.
func (s *CatalogService) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Export(s.services)
}

// Query evaluates q against the current collection.
func (s *CatalogService) Query(q model.Query) model.QueryResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline.Evaluate(s.services, q)
}

// Categories returns the distinct display categories, Uncategorized last.
func (s *CatalogService) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline.Categories(s.services)
}

// maxCommitAttempts bounds how often a mutation is re-applied after another
// writer saved the blob first.
const maxCommitAttempts = 3

// mutateLocked applies change to the current collection, persists the result
// at the revision last read and only then makes it current. When another
// process sharing the database saved first, the collection is reloaded and
// change applied again to the fresh state. A record missing from the
// in-memory collection triggers one reload before ErrServiceNotFound is
// returned, since another writer may have added it.
// Callers must hold s.mu for writing.
func (s *CatalogService) mutateLocked(ctx context.Context, change func(current []model.Service) ([]model.Service, error)) error {
	refreshed := false
	for attempt := 1; ; {
		next, err := change(s.services)
		if errors.Is(err, ErrServiceNotFound) && !refreshed {
			refreshed = true
			if rerr := s.reloadLocked(ctx); rerr != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		data, err := Export(next)
		if err != nil {
			return err
		}

		rev, err := s.blobs.Put(ctx, s.storageKey, string(data), s.revision)
		if err == nil {
			s.services = next
			s.revision = rev
			return nil
		}
		if !errors.Is(err, driven.ErrBlobConflict) || attempt == maxCommitAttempts {
			return fmt.Errorf("save catalog: %w", err)
		}

		s.logger.Info("saved catalog changed by another writer, reloading", "key", s.storageKey, "attempt", attempt)
		if err := s.reloadLocked(ctx); err != nil {
			return fmt.Errorf("save catalog: %w", err)
		}
		attempt++
	}
}

// replaceLocked persists services as the whole collection.
func (s *CatalogService) replaceLocked(ctx context.Context, services []model.Service) error {
	return s.mutateLocked(ctx, func([]model.Service) ([]model.Service, error) {
		return services, nil
	})
}

// takenBy reports ids used by services, ignoring except.
func takenBy(services []model.Service, except string) IDTaken {
	return func(id string) bool {
		if id == except {
			return false
		}
		return indexOf(services, id) >= 0
	}
}

func indexOf(services []model.Service, id string) int {
	for i := range services {
		if services[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneServices(services []model.Service) []model.Service {
	out := make([]model.Service, len(services))
	for i, svc := range services {
		out[i] = svc.Clone()
	}
	return out
}

// SampleServices returns the built-in dataset used when nothing is saved.
func SampleServices() []model.Service {
	samples := []model.Service{
		{Name: "Google", MinLength: model.IntPtr(10), MaxLength: model.IntPtr(20), Notes: "Recommended: enable 2FA", TwoFactor: true},
		{Name: "GitHub", MinLength: model.IntPtr(8), Notes: "Long passphrases allowed", TwoFactor: true, Passkey: true},
		{Name: "Netflix", MinLength: model.IntPtr(6), MaxLength: model.IntPtr(60)},
	}

	seen := make(map[string]bool, len(samples))
	for i := range samples {
		samples[i].ID = newID(func(id string) bool { return seen[id] })
		seen[samples[i].ID] = true
	}
	return samples
}
