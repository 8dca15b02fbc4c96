package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeValidationError writes a 422 carrying the machine-readable reason.
func writeValidationError(w http.ResponseWriter, verr *model.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  verr.Message,
		Reason: string(verr.Reason),
	})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// ListResponse is the body of GET /api/v1/services.
type ListResponse struct {
	Services []model.Service `json:"services"`
	Groups   []GroupResponse `json:"groups,omitempty"`
	Total    int             `json:"total"`
	ReadOnly bool            `json:"readOnly"`
}

// GroupResponse is one category bucket in a grouped listing.
type GroupResponse struct {
	Category string          `json:"category"`
	Services []model.Service `json:"services"`
}

// ImportResponse reports the outcome of an import.
type ImportResponse struct {
	Imported int `json:"imported"`
	Dropped  int `json:"dropped"`
}

// ReloadResponse reports the outcome of a reload.
type ReloadResponse struct {
	Services int `json:"services"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	Mode         string `json:"mode"`
	Services     int    `json:"services"`
	Time         string `json:"time"`
	LastRefresh  string `json:"lastRefresh,omitempty"`
	RefreshError string `json:"refreshError,omitempty"`
}

// toListResponse converts a query result to its JSON representation. Groups
// are only emitted for grouped queries.
func toListResponse(result model.QueryResult, total int, readOnly bool) ListResponse {
	services := result.Services
	if services == nil {
		services = []model.Service{}
	}

	resp := ListResponse{
		Services: services,
		Total:    total,
		ReadOnly: readOnly,
	}
	for _, g := range result.Groups {
		resp.Groups = append(resp.Groups, GroupResponse{Category: g.Category, Services: g.Services})
	}
	return resp
}

func healthNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
