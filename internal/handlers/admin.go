package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gfragi/attendance-app/internal/app"
	"github.com/gfragi/attendance-app/internal/models"
)

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	ident := h.identity(r)
	if !h.service.Policy.IsAdmin(ident.Email) {
		h.writeError(w, app.ErrUnauthorized)
		return false
	}
	return true
}

// HandleAddUser creates an admin or instructor account. An existing email is
// reported as a soft no-op, not an error.
func (h *Handler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, created, err := h.service.AddUser(payload.Name, payload.Email, payload.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user":    user,
			"created": false,
			"message": "user already exists",
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    user,
		"created": true,
	})
}

// HandleAddCourse creates a course. An existing code is a soft no-op.
func (h *Handler) HandleAddCourse(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var payload struct {
		Code  string `json:"code"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	course, created, err := h.service.AddCourse(payload.Code, payload.Title)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"course":  course,
			"created": false,
			"message": "course already exists",
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"course":  course,
		"created": true,
	})
}

// HandleAssignInstructor links an instructor to a course. An existing link
// is a soft no-op.
func (h *Handler) HandleAssignInstructor(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var payload struct {
		CourseCode      string `json:"course_code"`
		InstructorEmail string `json:"instructor_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	created, err := h.service.AssignInstructor(payload.CourseCode, payload.InstructorEmail)
	if err != nil {
		h.writeError(w, err)
		return
	}

	message := "assigned"
	if !created {
		message = "already assigned"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created": created,
		"message": message,
	})
}

// HandleListUsers lists accounts by role, instructors unless asked otherwise.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	role := r.URL.Query().Get("role")
	if role == "" {
		role = models.RoleInstructor
	}

	users, err := h.service.Users(role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// HandleImport bulk-imports course/instructor rows. Rows missing required
// fields are skipped; the rest still import.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var rows []app.ImportRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	summary, err := h.service.ImportAssignments(rows)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
	})
}
