// Package handlers exposes the attendance protocol over HTTP. Everything
// here is thin glue: identity comes from the service's resolver, decisions
// come from the session/ledger/report packages.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/gfragi/attendance-app/internal/app"
	"github.com/gfragi/attendance-app/internal/metrics"
	"github.com/gfragi/attendance-app/internal/session"
)

type Handler struct {
	service *app.Service
}

func New(service *app.Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) identity(r *http.Request) app.Identity {
	return h.service.Resolver.Resolve(r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Validation and policy
// failures surface as user-facing messages; anything else is a 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "access restricted"})
	case errors.Is(err, app.ErrNotFound), errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, app.ErrValidation), errors.Is(err, session.ErrDurationOutOfRange):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrClosed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func observe(r *http.Request, start time.Time, status int) {
	metrics.APIRequestDuration.WithLabelValues(
		r.URL.Path,
		r.Method,
		strconv.Itoa(status),
	).Observe(time.Since(start).Seconds())
}

// truthy matches the check-in link flag values: "1", "true", "yes".
func truthy(s string) bool {
	switch s {
	case "1", "true", "yes":
		return true
	}
	return false
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
