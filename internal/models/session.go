package models

import (
	"time"
)

// Session is a single time-boxed attendance window for one course meeting.
// All timestamps are unix seconds in UTC. EndTime is set on explicit close
// only; a session past ExpiresAt is treated as closed for check-in purposes
// even while IsOpen still reads true.
type Session struct {
	ID        int64  `db:"id" json:"id"`
	CourseID  int64  `db:"course_id" json:"course_id"`
	StartTime int64  `db:"start_time" json:"start_time"`
	EndTime   *int64 `db:"end_time" json:"end_time,omitempty"`
	IsOpen    bool   `db:"is_open" json:"is_open"`
	Token     string `db:"token" json:"token"`
	ExpiresAt int64  `db:"expires_at" json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.UTC().Unix() > s.ExpiresAt
}

func (s *Session) AcceptsCheckIns(now time.Time) bool {
	return s.IsOpen && !s.Expired(now)
}
