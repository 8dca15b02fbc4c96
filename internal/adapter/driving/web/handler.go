// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/pwcatalog/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/pwcatalog/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/pwcatalog/internal/application"
	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

const maxImportBytes = 8 << 20

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	catalog *application.CatalogService
	title   string
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(catalog *application.CatalogService, logger *slog.Logger) *Handler {
	title := "Password Requirements"
	if catalog.ReadOnly() {
		title = "Password Requirements Directory"
	}
	return &Handler{
		catalog: catalog,
		title:   title,
		logger:  logger,
	}
}

// Index renders the catalog: the sortable table for an editable catalog,
// grouped cards for a viewer.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page := h.catalogPage(w, r, application.QueryFromValues(r.URL.Query()))
	h.render(w, r, http.StatusOK, templates.CatalogPage(page))
}

// EditService renders the edit form for one service.
func (h *Handler) EditService(w http.ResponseWriter, r *http.Request) {
	if h.catalog.ReadOnly() {
		http.Error(w, "catalog is read-only", http.StatusForbidden)
		return
	}

	svc, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err, "get service")
		return
	}

	page := vm.EditPageViewModel{
		Title:     h.title,
		CSRFToken: csrfToken(w, r),
		Form:      toEditFormViewModel(svc, returnQuery(r)),
	}
	h.render(w, r, http.StatusOK, templates.EditPage(page))
}

// CreateService adds a service from the add form. A rejected submission
// re-renders the index page with the message and the typed values.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	if !h.checkWritable(w, r) {
		return
	}

	svc, err := h.catalog.Create(r.Context(), application.ParseForm(r.PostForm))
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		q := application.QueryFromValues(r.URL.Query())
		page := h.catalogPage(w, r, q)
		page.Form = refillForm(page.Form, r.PostForm, verr.Message)
		h.render(w, r, http.StatusUnprocessableEntity, templates.CatalogPage(page))
		return
	}
	if err != nil {
		h.writeError(w, err, "create service")
		return
	}

	h.logger.Info("service created", "id", svc.ID, "name", svc.Name)
	h.redirectHome(w, r)
}

// UpdateService saves the edit form.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	if !h.checkWritable(w, r) {
		return
	}

	id := r.PathValue("id")
	svc, err := h.catalog.Update(r.Context(), id, application.ParseForm(r.PostForm))
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		current, getErr := h.catalog.Get(id)
		if getErr != nil {
			h.writeError(w, getErr, "get service")
			return
		}
		page := vm.EditPageViewModel{
			Title:     h.title,
			CSRFToken: csrfToken(w, r),
			Form:      refillForm(toEditFormViewModel(current, returnQuery(r)), r.PostForm, verr.Message),
		}
		h.render(w, r, http.StatusUnprocessableEntity, templates.EditPage(page))
		return
	}
	if err != nil {
		h.writeError(w, err, "update service")
		return
	}

	h.logger.Info("service updated", "id", svc.ID)
	h.redirectHome(w, r)
}

// DeleteService removes one service.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if !h.checkWritable(w, r) {
		return
	}

	id := r.PathValue("id")
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "delete service")
		return
	}

	h.logger.Info("service deleted", "id", id)
	h.redirectHome(w, r)
}

// ClearServices removes every service.
func (h *Handler) ClearServices(w http.ResponseWriter, r *http.Request) {
	if !h.checkWritable(w, r) {
		return
	}

	if err := h.catalog.Clear(r.Context()); err != nil {
		h.writeError(w, err, "clear services")
		return
	}

	h.logger.Info("catalog cleared")
	h.redirectHome(w, r)
}

// Import replaces the collection with the uploaded JSON file.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if h.catalog.ReadOnly() {
		http.Error(w, "catalog is read-only", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.renderImportError(w, r, "Choose a JSON file to import.")
		return
	}
	defer file.Close()

	doc, err := io.ReadAll(file)
	if err != nil {
		h.renderImportError(w, r, "Could not read the uploaded file.")
		return
	}

	result, err := h.catalog.Import(r.Context(), doc)
	switch {
	case errors.Is(err, application.ErrImportNotArray):
		h.renderImportError(w, r, "Import failed: the file must contain a JSON array of services.")
		return
	case errors.Is(err, application.ErrImportMalformed):
		h.renderImportError(w, r, "Import failed: the file is not valid JSON.")
		return
	case err != nil:
		h.writeError(w, err, "import catalog")
		return
	}

	page := h.catalogPage(w, r, application.QueryFromValues(url.Values{}))
	page.Flash = fmt.Sprintf("Imported %d services.", len(result.Services))
	if result.Dropped > 0 {
		page.Flash = fmt.Sprintf("Imported %d services, skipped %d invalid records.", len(result.Services), result.Dropped)
	}
	h.render(w, r, http.StatusOK, templates.CatalogPage(page))
}

// Export downloads the collection as password-requirements.json.
func (h *Handler) Export(w http.ResponseWriter, _ *http.Request) {
	data, err := h.catalog.Export()
	if err != nil {
		h.logger.Error("failed to export catalog", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", application.ExportFilename))
	_, _ = w.Write(data)
}

func (h *Handler) catalogPage(w http.ResponseWriter, r *http.Request, q model.Query) vm.CatalogPageViewModel {
	if h.catalog.ReadOnly() {
		q.Grouped = true
	}
	page := toCatalogPageViewModel(
		h.title,
		h.catalog.ReadOnly(),
		q,
		h.catalog.Query(q),
		h.catalog.Categories(),
		h.catalog.Len(),
	)
	if !page.ReadOnly {
		page.CSRFToken = csrfToken(w, r)
	}
	return page
}

func (h *Handler) renderImportError(w http.ResponseWriter, r *http.Request, message string) {
	page := h.catalogPage(w, r, application.QueryFromValues(url.Values{}))
	page.Error = message
	h.render(w, r, http.StatusBadRequest, templates.CatalogPage(page))
}

// checkWritable parses the form and rejects viewer catalogs and requests
// without a valid CSRF token. It writes the response when it returns false.
func (h *Handler) checkWritable(w http.ResponseWriter, r *http.Request) bool {
	if h.catalog.ReadOnly() {
		http.Error(w, "catalog is read-only", http.StatusForbidden)
		return false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return false
	}
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, application.ErrServiceNotFound):
		http.Error(w, "service not found", http.StatusNotFound)
	case errors.Is(err, application.ErrReadOnly):
		http.Error(w, "catalog is read-only", http.StatusForbidden)
	default:
		h.logger.Error("failed to "+action, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Layout(h.title, body).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}

// redirectHome sends the browser back to the index with the query it came from.
func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, withQuery("/", returnQuery(r)), http.StatusSeeOther)
}

// returnQuery re-encodes the request's query so only known parameters
// survive into links and redirects.
func returnQuery(r *http.Request) string {
	return application.Values(application.QueryFromValues(r.URL.Query())).Encode()
}
