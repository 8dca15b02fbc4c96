package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /export", h.Export)
	mux.HandleFunc("GET /services/{id}/edit", h.EditService)
	mux.HandleFunc("POST /services", h.CreateService)
	mux.HandleFunc("POST /services/clear", h.ClearServices)
	mux.HandleFunc("POST /services/{id}", h.UpdateService)
	mux.HandleFunc("POST /services/{id}/delete", h.DeleteService)
	mux.HandleFunc("POST /import", h.Import)
}
