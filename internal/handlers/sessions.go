package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gfragi/attendance-app/internal/metrics"
	"github.com/gfragi/attendance-app/internal/models"
	"github.com/gfragi/attendance-app/internal/session"
)

type sessionView struct {
	ID         int64  `json:"id"`
	Token      string `json:"token"`
	StartTime  string `json:"start_time"`
	ExpiresAt  string `json:"expires_at"`
	EndTime    string `json:"end_time,omitempty"`
	IsOpen     bool   `json:"is_open"`
	CheckInURL string `json:"checkin_url"`
	CheckIns   int64  `json:"check_ins"`
}

func (h *Handler) sessionView(sess *models.Session, includeCount bool) sessionView {
	view := sessionView{
		ID:         sess.ID,
		Token:      sess.Token,
		StartTime:  h.displayTime(sess.StartTime),
		ExpiresAt:  h.displayTime(sess.ExpiresAt),
		IsOpen:     sess.IsOpen,
		CheckInURL: session.CheckInURL(h.service.Config.Server.PublicBaseURL, sess.Token),
	}
	if sess.EndTime != nil {
		view.EndTime = h.displayTime(*sess.EndTime)
	}
	if includeCount {
		if count, err := h.service.SessionCheckInCount(sess.ID); err == nil {
			view.CheckIns = count
		}
	}
	return view
}

// HandleCourses lists the courses visible to the caller: all of them for
// admins and secretaries, own assignments for instructors.
func (h *Handler) HandleCourses(w http.ResponseWriter, r *http.Request) {
	ident := h.identity(r)
	if ident.Anonymous() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}

	courses, err := h.service.Courses(ident.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
	})
}

// HandleOpenSession opens a new timed attendance window for the course.
func (h *Handler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	ident := h.identity(r)
	if ident.Anonymous() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}

	courseCode := r.PathValue("course")
	var payload struct {
		Minutes int `json:"minutes"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err.Error() != "EOF" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	sess, course, err := h.service.OpenSession(ident.Email, courseCode, payload.Minutes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	metrics.SessionsOpenedTotal.WithLabelValues(course.Code).Inc()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": h.sessionView(sess, false),
	})
}

// HandleActiveSessions lists the course's windows that still accept
// check-ins, with live check-in counts.
func (h *Handler) HandleActiveSessions(w http.ResponseWriter, r *http.Request) {
	ident := h.identity(r)
	if ident.Anonymous() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}

	sessions, err := h.service.ActiveSessions(ident.Email, r.PathValue("course"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, h.sessionView(&sessions[i], true))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": views,
	})
}

// HandleExtendSession pushes the expiry of a not-yet-closed window forward.
func (h *Handler) HandleExtendSession(w http.ResponseWriter, r *http.Request) {
	ident := h.identity(r)
	if ident.Anonymous() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return
	}

	var payload struct {
		Minutes int `json:"minutes"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err.Error() != "EOF" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	sess, err := h.service.ExtendSession(ident.Email, id, payload.Minutes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": h.sessionView(sess, true),
	})
}

// HandleCloseSession explicitly closes a window. Closing twice is a no-op.
func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	ident := h.identity(r)
	if ident.Anonymous() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return
	}

	sess, err := h.service.CloseSession(ident.Email, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": h.sessionView(sess, true),
	})
}
