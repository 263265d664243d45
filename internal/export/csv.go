// Package export renders report views as flat delimited tables with stable
// header rows.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/gfragi/attendance-app/internal/report"
	"github.com/gfragi/attendance-app/internal/timeutil"
)

// WriteRaw writes the flat check-in rows.
func WriteRaw(w io.Writer, rows []report.Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"course_code", "course_title", "session_id", "session_start",
		"student_name", "student_email", "check_in_at",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.CourseCode,
			r.CourseTitle,
			strconv.FormatInt(r.SessionID, 10),
			r.SessionStart.Format(timeutil.DisplayFormat),
			r.StudentName,
			r.StudentEmail,
			r.CheckInAt.Format(timeutil.DisplayFormat),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteGrouped writes the per-bucket aggregates.
func WriteGrouped(w io.Writer, grouped []report.BucketRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"course_code", "course_title", "bucket",
		"check_ins", "unique_students", "sessions",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, g := range grouped {
		record := []string{
			g.CourseCode,
			g.CourseTitle,
			formatBucket(g.Bucket),
			strconv.Itoa(g.CheckIns),
			strconv.Itoa(g.UniqueStudents),
			strconv.Itoa(g.Sessions),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WritePivot writes the bucket-by-course matrix. Cells for combinations with
// no check-ins come out as 0, never blank.
func WritePivot(w io.Writer, p report.Pivot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := append([]string{"bucket"}, p.Courses...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, b := range p.Buckets {
		record := make([]string, 0, len(p.Courses)+1)
		record = append(record, formatBucket(b))
		for _, cell := range p.Cells[i] {
			record = append(record, strconv.Itoa(cell))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteRates writes the per-student attendance rates.
func WriteRates(w io.Writer, rates []report.RateRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"course_code", "student_email",
		"attended_sessions", "total_sessions", "attendance_rate_%",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rates {
		record := []string{
			r.CourseCode,
			r.StudentEmail,
			strconv.Itoa(r.AttendedSessions),
			strconv.Itoa(r.TotalSessions),
			strconv.FormatFloat(r.AttendanceRate, 'f', 1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

func formatBucket(t time.Time) string {
	return t.Format(timeutil.DateFormat)
}
