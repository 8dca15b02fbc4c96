package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/pwcatalog/internal/application"
	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// maxBodyBytes bounds request bodies, including import documents.
const maxBodyBytes = 8 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	catalog   *application.CatalogService
	refresher *application.RefreshService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(catalog *application.CatalogService, refresher *application.RefreshService, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:   catalog,
		refresher: refresher,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers all /api/v1 routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/services", h.ListServices)
	mux.HandleFunc("POST /api/v1/services", h.CreateService)
	mux.HandleFunc("DELETE /api/v1/services", h.ClearServices)
	mux.HandleFunc("GET /api/v1/services/{id}", h.GetService)
	mux.HandleFunc("PUT /api/v1/services/{id}", h.UpdateService)
	mux.HandleFunc("DELETE /api/v1/services/{id}", h.DeleteService)
	mux.HandleFunc("GET /api/v1/categories", h.ListCategories)
	mux.HandleFunc("GET /api/v1/export", h.Export)
	mux.HandleFunc("POST /api/v1/import", h.Import)
	mux.HandleFunc("POST /api/v1/reload", h.Reload)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// NewServeMux creates an http.Handler with only the API routes registered,
// wrapped with default middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger, MiddlewareOptions{})
}

// ListServices returns the filtered, sorted and optionally grouped services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	q := application.QueryFromValues(r.URL.Query())
	result := h.catalog.Query(q)
	writeJSON(w, http.StatusOK, toListResponse(result, h.catalog.Len(), h.catalog.ReadOnly()))
}

// GetService returns a single service by id.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		h.writeCatalogError(w, err, "get service")
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// CreateService normalizes the JSON body and appends it to the collection.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	svc, err := h.catalog.Create(r.Context(), raw)
	if err != nil {
		h.writeCatalogError(w, err, "create service")
		return
	}

	h.logger.Info("service created", "id", svc.ID, "name", svc.Name)
	writeJSON(w, http.StatusCreated, svc)
}

// UpdateService replaces every field of an existing service except its id.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	svc, err := h.catalog.Update(r.Context(), r.PathValue("id"), raw)
	if err != nil {
		h.writeCatalogError(w, err, "update service")
		return
	}

	h.logger.Info("service updated", "id", svc.ID)
	writeJSON(w, http.StatusOK, svc)
}

// DeleteService removes a service by id.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.writeCatalogError(w, err, "delete service")
		return
	}

	h.logger.Info("service deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ClearServices removes every service.
func (h *Handler) ClearServices(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Clear(r.Context()); err != nil {
		h.writeCatalogError(w, err, "clear services")
		return
	}

	h.logger.Info("catalog cleared")
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories returns the distinct display categories.
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

// Export returns the whole collection as a downloadable JSON document.
func (h *Handler) Export(w http.ResponseWriter, _ *http.Request) {
	data, err := h.catalog.Export()
	if err != nil {
		h.logger.Error("failed to export catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", application.ExportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import replaces the collection with the valid records of the JSON array
// in the request body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if h.catalog.ReadOnly() {
		h.writeCatalogError(w, application.ErrReadOnly, "import catalog")
		return
	}

	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import document too large")
		return
	}

	result, err := h.catalog.Import(r.Context(), doc)
	if err != nil {
		h.writeCatalogError(w, err, "import catalog")
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Imported: len(result.Services), Dropped: result.Dropped})
}

// Reload re-reads the collection from its backing source. For a viewer this
// re-runs the source chain; 502 means every source failed and the catalog
// is now empty.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.Refresh(r.Context()); err != nil {
		if errors.Is(err, application.ErrAllSourcesFailed) {
			writeError(w, http.StatusBadGateway, "no catalog source could be loaded")
			return
		}
		h.logger.Error("failed to reload catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ReloadResponse{Services: h.catalog.Len()})
}

// Health returns a simple health check response. A failed last refresh is
// reported but does not make the server unhealthy.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Mode:     string(h.catalog.Mode()),
		Services: h.catalog.Len(),
		Time:     healthNow(),
	}

	if at, err := h.refresher.LastRefresh(); !at.IsZero() {
		resp.LastRefresh = at.UTC().Format(time.RFC3339)
		if err != nil {
			resp.RefreshError = err.Error()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeCatalogError maps CatalogService errors onto HTTP status codes.
func (h *Handler) writeCatalogError(w http.ResponseWriter, err error, action string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, application.ErrReadOnly):
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "catalog is read-only")
	case errors.Is(err, application.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service not found")
	case errors.Is(err, application.ErrImportNotArray), errors.Is(err, application.ErrImportMalformed):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("failed to "+action, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeObject reads a single JSON object from the request body, keeping
// numbers as json.Number so the normalizer sees the original text.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.New("invalid request body: expected a JSON object")
	}
	if raw == nil {
		return nil, errors.New("invalid request body: expected a JSON object")
	}
	return raw, nil
}
