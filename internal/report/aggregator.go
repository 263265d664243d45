// Package report turns raw check-in history into the four exportable views:
// raw rows, per-bucket aggregates, a bucket-by-course pivot, and per-student
// attendance rates.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gfragi/attendance-app/internal/store"
	"github.com/gfragi/attendance-app/internal/timeutil"
)

type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case ByDay, ByWeek, ByMonth:
		return Granularity(s), nil
	case "":
		return ByDay, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Row is one check-in with timestamps already converted to the reporting
// zone.
type Row struct {
	CourseCode   string    `json:"course_code"`
	CourseTitle  string    `json:"course_title"`
	SessionID    int64     `json:"session_id"`
	SessionStart time.Time `json:"session_start"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	CheckInAt    time.Time `json:"check_in_at"`
}

// BucketRow is one (course, time bucket) aggregate.
type BucketRow struct {
	CourseCode     string    `json:"course_code"`
	CourseTitle    string    `json:"course_title"`
	Bucket         time.Time `json:"bucket"`
	CheckIns       int       `json:"check_ins"`
	UniqueStudents int       `json:"unique_students"`
	Sessions       int       `json:"sessions"`
}

// Pivot is a matrix of check-in counts: one row per time bucket, one column
// per course code, zero-filled where a combination has no check-ins.
type Pivot struct {
	Buckets []time.Time `json:"buckets"`
	Courses []string    `json:"courses"`
	Cells   [][]int     `json:"cells"`
}

// RateRow is one (course, student) attendance-rate line. TotalSessions
// counts only sessions with at least one check-in inside the filtered
// window; a session nobody attended is invisible to both numerator and
// denominator. That matches the system this replaces and is kept on
// purpose.
type RateRow struct {
	CourseCode       string  `json:"course_code"`
	StudentEmail     string  `json:"student_email"`
	AttendedSessions int     `json:"attended_sessions"`
	TotalSessions    int     `json:"total_sessions"`
	AttendanceRate   float64 `json:"attendance_rate_pct"`
}

// Aggregator reads check-in history scoped by the caller and shapes it for
// export. All outputs use the fixed reporting zone.
type Aggregator struct {
	store store.AttendanceStore
	Zone  *time.Location
}

func NewAggregator(st store.AttendanceStore, zone *time.Location) *Aggregator {
	return &Aggregator{store: st, Zone: zone}
}

// Query fetches the flat row set. instructorEmail == "" means all courses
// (admin/secretary scope); otherwise rows are limited to courses taught by
// that instructor. The [from, to) interval is half-open.
func (a *Aggregator) Query(instructorEmail string, courseIDs []int64, from, to time.Time) ([]Row, error) {
	raw, err := a.store.FetchReportRows(
		instructorEmail,
		courseIDs,
		timeutil.ToUnix(from),
		timeutil.ToUnix(to),
	)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Row{
			CourseCode:   r.CourseCode,
			CourseTitle:  r.CourseTitle,
			SessionID:    r.SessionID,
			SessionStart: timeutil.FromUnix(r.SessionStart).In(a.Zone),
			StudentName:  r.StudentName,
			StudentEmail: r.StudentEmail,
			CheckInAt:    timeutil.FromUnix(r.CheckInAt).In(a.Zone),
		})
	}
	return rows, nil
}

func (a *Aggregator) bucketOf(t time.Time, g Granularity) time.Time {
	switch g {
	case ByWeek:
		return timeutil.WeekBucket(t, a.Zone)
	case ByMonth:
		return timeutil.MonthBucket(t, a.Zone)
	default:
		return timeutil.DayBucket(t, a.Zone)
	}
}

// Bucket groups rows by (course, time bucket) and computes check-in count,
// distinct students and distinct sessions per group. Result is sorted by
// bucket ascending, then course code ascending.
func (a *Aggregator) Bucket(rows []Row, g Granularity) []BucketRow {
	type key struct {
		code   string
		title  string
		bucket int64
	}
	type acc struct {
		checkIns int
		students map[string]struct{}
		sessions map[int64]struct{}
	}

	groups := make(map[key]*acc)
	for _, r := range rows {
		k := key{
			code:   r.CourseCode,
			title:  r.CourseTitle,
			bucket: a.bucketOf(r.CheckInAt, g).Unix(),
		}
		grp := groups[k]
		if grp == nil {
			grp = &acc{
				students: make(map[string]struct{}),
				sessions: make(map[int64]struct{}),
			}
			groups[k] = grp
		}
		grp.checkIns++
		grp.students[r.StudentEmail] = struct{}{}
		grp.sessions[r.SessionID] = struct{}{}
	}

	out := make([]BucketRow, 0, len(groups))
	for k, grp := range groups {
		out = append(out, BucketRow{
			CourseCode:     k.code,
			CourseTitle:    k.title,
			Bucket:         time.Unix(k.bucket, 0).In(a.Zone),
			CheckIns:       grp.checkIns,
			UniqueStudents: len(grp.students),
			Sessions:       len(grp.sessions),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Bucket.Equal(out[j].Bucket) {
			return out[i].Bucket.Before(out[j].Bucket)
		}
		return out[i].CourseCode < out[j].CourseCode
	})
	return out
}

// BuildPivot reshapes bucketed rows into a bucket-by-course matrix of
// check-in counts. Every (bucket, course) cell exists; absent combinations
// hold zero.
func BuildPivot(grouped []BucketRow) Pivot {
	bucketSet := make(map[int64]time.Time)
	courseSet := make(map[string]struct{})
	for _, g := range grouped {
		bucketSet[g.Bucket.Unix()] = g.Bucket
		courseSet[g.CourseCode] = struct{}{}
	}

	buckets := make([]time.Time, 0, len(bucketSet))
	for _, b := range bucketSet {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	courses := make([]string, 0, len(courseSet))
	for c := range courseSet {
		courses = append(courses, c)
	}
	sort.Strings(courses)

	bucketIdx := make(map[int64]int, len(buckets))
	for i, b := range buckets {
		bucketIdx[b.Unix()] = i
	}
	courseIdx := make(map[string]int, len(courses))
	for i, c := range courses {
		courseIdx[c] = i
	}

	cells := make([][]int, len(buckets))
	for i := range cells {
		cells[i] = make([]int, len(courses))
	}
	for _, g := range grouped {
		cells[bucketIdx[g.Bucket.Unix()]][courseIdx[g.CourseCode]] += g.CheckIns
	}

	return Pivot{Buckets: buckets, Courses: courses, Cells: cells}
}

// AttendanceRates computes per (course, student) the share of that course's
// sessions the student checked into, as a percentage rounded to one decimal.
// Sorted by course code ascending, then rate descending, then email.
func AttendanceRates(rows []Row) []RateRow {
	courseSessions := make(map[string]map[int64]struct{})
	type pair struct {
		course string
		email  string
	}
	attended := make(map[pair]map[int64]struct{})

	for _, r := range rows {
		if courseSessions[r.CourseCode] == nil {
			courseSessions[r.CourseCode] = make(map[int64]struct{})
		}
		courseSessions[r.CourseCode][r.SessionID] = struct{}{}

		p := pair{course: r.CourseCode, email: r.StudentEmail}
		if attended[p] == nil {
			attended[p] = make(map[int64]struct{})
		}
		attended[p][r.SessionID] = struct{}{}
	}

	out := make([]RateRow, 0, len(attended))
	for p, sessions := range attended {
		total := len(courseSessions[p.course])
		rate := float64(len(sessions)) / float64(total) * 100
		out = append(out, RateRow{
			CourseCode:       p.course,
			StudentEmail:     p.email,
			AttendedSessions: len(sessions),
			TotalSessions:    total,
			AttendanceRate:   math.Round(rate*10) / 10,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseCode != out[j].CourseCode {
			return out[i].CourseCode < out[j].CourseCode
		}
		if out[i].AttendanceRate != out[j].AttendanceRate {
			return out[i].AttendanceRate > out[j].AttendanceRate
		}
		return out[i].StudentEmail < out[j].StudentEmail
	})
	return out
}
