package models

// Attendance is one check-in event. Rows are append-only: never mutated or
// deleted once written.
// unique_together is handled on DB level:
/*
CREATE TABLE attendance (
    id BIGSERIAL PRIMARY KEY,
    session_id BIGINT NOT NULL REFERENCES sessions(id),
    student_name TEXT NOT NULL,
    student_email TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    CONSTRAINT attendance_session_email_uc UNIQUE (session_id, student_email)
);
*/
type Attendance struct {
	ID           int64  `db:"id" json:"id"`
	SessionID    int64  `db:"session_id" json:"session_id"`
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
	CreatedAt    int64  `db:"created_at" json:"created_at"`
}
