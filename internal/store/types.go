package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

// ReportRow is one flat check-in row as joined across courses, sessions and
// attendance. Timestamps are unix seconds UTC; zone conversion happens in the
// report aggregator.
type ReportRow struct {
	CourseCode   string `db:"course_code"`
	CourseTitle  string `db:"course_title"`
	SessionID    int64  `db:"session_id"`
	SessionStart int64  `db:"session_start"`
	StudentName  string `db:"student_name"`
	StudentEmail string `db:"student_email"`
	CheckInAt    int64  `db:"check_in_at"`
}
