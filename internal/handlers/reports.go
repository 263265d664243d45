package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gfragi/attendance-app/internal/export"
	"github.com/gfragi/attendance-app/internal/report"
	"github.com/gfragi/attendance-app/internal/timeutil"
)

// HandleReport serves one of the four report views for the caller's scope.
// Dates are half-open: from inclusive, to exclusive. Defaults cover the
// trailing 30 days up to and including today.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ident := h.identity(r)
	if ident.Anonymous() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}

	view := r.PathValue("view")
	switch view {
	case "raw", "grouped", "pivot", "rates":
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown report view %q", view)})
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	granularity, err := report.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	courseIDs, err := parseCourseIDs(r.URL.Query().Get("courses"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.service.ReportRows(ident.Email, courseIDs, from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}

	asCSV := r.URL.Query().Get("format") == "csv"
	if asCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=checkins_%s.csv", view))
	}

	switch view {
	case "raw":
		if asCSV {
			err = export.WriteRaw(w, rows)
		} else {
			writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
		}
	case "grouped":
		grouped := h.service.Reports.Bucket(rows, granularity)
		if asCSV {
			err = export.WriteGrouped(w, grouped)
		} else {
			writeJSON(w, http.StatusOK, map[string]interface{}{"rows": grouped})
		}
	case "pivot":
		pivot := report.BuildPivot(h.service.Reports.Bucket(rows, granularity))
		if asCSV {
			err = export.WritePivot(w, pivot)
		} else {
			writeJSON(w, http.StatusOK, map[string]interface{}{"pivot": pivot})
		}
	case "rates":
		rates := report.AttendanceRates(rows)
		if asCSV {
			err = export.WriteRates(w, rates)
		} else {
			writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rates})
		}
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	observe(r, start, http.StatusOK)
}

// parseDateRange reads from/to as dates interpreted in UTC. Absent values
// default to the last 30 days plus today.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	today := timeutil.DayBucket(time.Now().UTC(), time.UTC)
	from := today.AddDate(0, 0, -30)
	to := today.AddDate(0, 0, 1)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.ParseInLocation(timeutil.DateFormat, v, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q, want YYYY-MM-DD", v)
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.ParseInLocation(timeutil.DateFormat, v, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q, want YYYY-MM-DD", v)
		}
		to = parsed
	}
	return from, to, nil
}

func parseCourseIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid course id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
