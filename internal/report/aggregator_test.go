package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func row(course string, sessionID int64, email string, checkInAt time.Time) Row {
	return Row{
		CourseCode:   course,
		CourseTitle:  course + " title",
		SessionID:    sessionID,
		SessionStart: checkInAt.Add(-5 * time.Minute),
		StudentName:  "Student",
		StudentEmail: email,
		CheckInAt:    checkInAt,
	}
}

func TestParseGranularity(t *testing.T) {
	for _, s := range []string{"day", "week", "month"} {
		g, err := ParseGranularity(s)
		require.NoError(t, err)
		assert.Equal(t, Granularity(s), g)
	}

	g, err := ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, ByDay, g)

	_, err = ParseGranularity("fortnight")
	assert.Error(t, err)
}

func TestBucket(t *testing.T) {
	agg := NewAggregator(nil, time.UTC)

	rows := []Row{
		// Monday and Tuesday of the same week, two courses.
		row("cs101", 1, "a@x.edu", day(2024, 3, 4, 9)),
		row("cs101", 1, "b@x.edu", day(2024, 3, 4, 9)),
		row("cs101", 2, "a@x.edu", day(2024, 3, 5, 9)),
		row("ds202", 3, "a@x.edu", day(2024, 3, 5, 11)),
		// Next week.
		row("cs101", 4, "c@x.edu", day(2024, 3, 11, 9)),
	}

	t.Run("by day", func(t *testing.T) {
		out := agg.Bucket(rows, ByDay)
		require.Len(t, out, 4)

		assert.Equal(t, "cs101", out[0].CourseCode)
		assert.Equal(t, day(2024, 3, 4, 0), out[0].Bucket)
		assert.Equal(t, 2, out[0].CheckIns)
		assert.Equal(t, 2, out[0].UniqueStudents)
		assert.Equal(t, 1, out[0].Sessions)

		// Same bucket sorts by course code.
		assert.Equal(t, "cs101", out[1].CourseCode)
		assert.Equal(t, "ds202", out[2].CourseCode)
		assert.Equal(t, day(2024, 3, 5, 0), out[1].Bucket)
		assert.Equal(t, day(2024, 3, 5, 0), out[2].Bucket)

		assert.Equal(t, day(2024, 3, 11, 0), out[3].Bucket)
	})

	t.Run("by week buckets on Monday", func(t *testing.T) {
		out := agg.Bucket(rows, ByWeek)
		require.Len(t, out, 3)

		assert.Equal(t, "cs101", out[0].CourseCode)
		assert.Equal(t, day(2024, 3, 4, 0), out[0].Bucket)
		assert.Equal(t, 3, out[0].CheckIns)
		assert.Equal(t, 2, out[0].UniqueStudents)
		assert.Equal(t, 2, out[0].Sessions)

		assert.Equal(t, "ds202", out[1].CourseCode)
		assert.Equal(t, day(2024, 3, 4, 0), out[1].Bucket)

		assert.Equal(t, "cs101", out[2].CourseCode)
		assert.Equal(t, day(2024, 3, 11, 0), out[2].Bucket)
	})

	t.Run("by month", func(t *testing.T) {
		out := agg.Bucket(rows, ByMonth)
		require.Len(t, out, 2)

		assert.Equal(t, "cs101", out[0].CourseCode)
		assert.Equal(t, day(2024, 3, 1, 0), out[0].Bucket)
		assert.Equal(t, 4, out[0].CheckIns)
		assert.Equal(t, 3, out[0].UniqueStudents)
		assert.Equal(t, 3, out[0].Sessions)
	})
}

func TestBuildPivot(t *testing.T) {
	agg := NewAggregator(nil, time.UTC)

	rows := []Row{
		row("cs101", 1, "a@x.edu", day(2024, 3, 4, 9)),
		row("cs101", 1, "b@x.edu", day(2024, 3, 4, 9)),
		row("ds202", 2, "a@x.edu", day(2024, 3, 5, 11)),
	}
	pivot := BuildPivot(agg.Bucket(rows, ByDay))

	require.Equal(t, []string{"cs101", "ds202"}, pivot.Courses)
	require.Len(t, pivot.Buckets, 2)
	assert.Equal(t, day(2024, 3, 4, 0), pivot.Buckets[0])
	assert.Equal(t, day(2024, 3, 5, 0), pivot.Buckets[1])

	// Absent combinations hold explicit zeros.
	assert.Equal(t, [][]int{
		{2, 0},
		{0, 1},
	}, pivot.Cells)
}

func TestBuildPivotEmpty(t *testing.T) {
	pivot := BuildPivot(nil)
	assert.Empty(t, pivot.Buckets)
	assert.Empty(t, pivot.Courses)
	assert.Empty(t, pivot.Cells)
}

func TestAttendanceRates(t *testing.T) {
	// Two sessions with check-ins: student a attended both, student b one.
	rows := []Row{
		row("cs101", 1, "a@x.edu", day(2024, 3, 4, 9)),
		row("cs101", 1, "b@x.edu", day(2024, 3, 4, 9)),
		row("cs101", 2, "a@x.edu", day(2024, 3, 11, 9)),
	}

	rates := AttendanceRates(rows)
	require.Len(t, rates, 2)

	assert.Equal(t, "a@x.edu", rates[0].StudentEmail)
	assert.Equal(t, 2, rates[0].AttendedSessions)
	assert.Equal(t, 2, rates[0].TotalSessions)
	assert.Equal(t, 100.0, rates[0].AttendanceRate)

	assert.Equal(t, "b@x.edu", rates[1].StudentEmail)
	assert.Equal(t, 1, rates[1].AttendedSessions)
	assert.Equal(t, 2, rates[1].TotalSessions)
	assert.Equal(t, 50.0, rates[1].AttendanceRate)
}

func TestAttendanceRatesRounding(t *testing.T) {
	// 1 of 3 sessions attended: 33.333... rounds to 33.3.
	rows := []Row{
		row("cs101", 1, "a@x.edu", day(2024, 3, 4, 9)),
		row("cs101", 2, "a@x.edu", day(2024, 3, 5, 9)),
		row("cs101", 3, "a@x.edu", day(2024, 3, 6, 9)),
		row("cs101", 1, "b@x.edu", day(2024, 3, 4, 9)),
	}

	rates := AttendanceRates(rows)
	require.Len(t, rates, 2)
	assert.Equal(t, 33.3, rates[1].AttendanceRate)
}

func TestAttendanceRatesSorting(t *testing.T) {
	rows := []Row{
		row("ds202", 10, "z@x.edu", day(2024, 3, 4, 9)),
		row("cs101", 1, "b@x.edu", day(2024, 3, 4, 9)),
		row("cs101", 1, "a@x.edu", day(2024, 3, 4, 9)),
	}

	rates := AttendanceRates(rows)
	require.Len(t, rates, 3)

	// Course ascending first, ties broken by email ascending.
	assert.Equal(t, "cs101", rates[0].CourseCode)
	assert.Equal(t, "a@x.edu", rates[0].StudentEmail)
	assert.Equal(t, "cs101", rates[1].CourseCode)
	assert.Equal(t, "b@x.edu", rates[1].StudentEmail)
	assert.Equal(t, "ds202", rates[2].CourseCode)
}
