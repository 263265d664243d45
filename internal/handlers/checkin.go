package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/gfragi/attendance-app/internal/ledger"
	"github.com/gfragi/attendance-app/internal/metrics"
	"github.com/gfragi/attendance-app/internal/models"
	"github.com/gfragi/attendance-app/internal/session"
	"github.com/gfragi/attendance-app/internal/timeutil"
)

// HandleCheckInInfo resolves a check-in link. With autocheckin set and a
// verified identity present, the attendance is recorded immediately without
// a confirmation step.
func (h *Handler) HandleCheckInInfo(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("session")
	if tok == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session token"})
		return
	}

	status, sess, err := h.service.Sessions.ValidateForCheckIn(tok)
	if err != nil {
		h.writeError(w, err)
		return
	}

	switch status {
	case session.StatusNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{
			"status": status.String(),
			"error":  "invalid session token",
		})
		return
	case session.StatusClosed, session.StatusExpired:
		writeJSON(w, http.StatusOK, map[string]string{"status": status.String()})
		return
	}

	course, err := h.service.Store.GetCourseByID(sess.CourseID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if truthy(r.URL.Query().Get("autocheckin")) {
		ident := h.identity(r)
		if ident.Anonymous() {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "authentication is required to auto check-in",
			})
			return
		}
		h.record(w, r, tok, ident.Name, ident.Email, ident.Verified)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       status.String(),
		"course_code":  course.Code,
		"course_title": course.Title,
		"open_until":   h.displayTime(sess.ExpiresAt),
	})
}

// HandleCheckIn records an attendance row for the session token. A resolved
// identity overrides any self-typed email and skips the domain-suffix
// policy.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("session")
	if tok == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session token"})
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err.Error() != "EOF" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	ident := h.identity(r)
	email := payload.Email
	verified := false
	if !ident.Anonymous() {
		email = ident.Email
		verified = ident.Verified
	}
	name := payload.Name
	if name == "" {
		name = ident.Name
	}

	h.record(w, r, tok, name, email, verified)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request, tok, name, email string, verified bool) {
	start := time.Now()

	outcome, err := h.service.Ledger.Record(tok, name, email, verified)
	if err != nil {
		h.writeError(w, err)
		return
	}

	switch outcome.Status {
	case ledger.Recorded:
		h.countCheckIn(outcome.Session)
		observe(r, start, http.StatusOK)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  string(outcome.Status),
			"message": "attendance recorded, thank you",
		})
	case ledger.AlreadyRecorded:
		observe(r, start, http.StatusOK)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  string(outcome.Status),
			"message": "you are already recorded for this session",
		})
	default:
		observe(r, start, http.StatusUnprocessableEntity)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"status": string(outcome.Status),
			"reason": outcome.Reason,
		})
	}
}

func (h *Handler) countCheckIn(sess *models.Session) {
	course, err := h.service.Store.GetCourseByID(sess.CourseID)
	if err != nil || course == nil {
		logger.Debug.Printf("Failed to resolve course %d for metrics: %v", sess.CourseID, err)
		return
	}
	metrics.CheckInsTotal.WithLabelValues(course.Code).Inc()
}

func (h *Handler) displayTime(unix int64) string {
	return timeutil.FromUnix(unix).In(h.service.Reports.Zone).Format(timeutil.DisplayFormat)
}
