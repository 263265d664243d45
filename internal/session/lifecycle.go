// Package session implements the attendance-window state machine: a window
// opens with a fresh token, may be extended while not explicitly closed, and
// stops accepting check-ins either on explicit close or when its expiry
// passes, whichever comes first.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/gfragi/attendance-app/internal/models"
	"github.com/gfragi/attendance-app/internal/store"
	"github.com/gfragi/attendance-app/internal/timeutil"
	"github.com/gfragi/attendance-app/internal/token"
)

var (
	ErrNotFound           = errors.New("session not found")
	ErrClosed             = errors.New("session is closed")
	ErrDurationOutOfRange = errors.New("session duration out of allowed range")
)

// CheckInStatus is the result of validating a session for check-in.
type CheckInStatus int

const (
	StatusOK CheckInStatus = iota
	StatusClosed
	StatusExpired
	StatusNotFound
)

func (s CheckInStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusClosed:
		return "closed"
	case StatusExpired:
		return "expired"
	case StatusNotFound:
		return "not_found"
	}
	return "unknown"
}

// Lifecycle drives session state transitions. Now is swappable for tests.
type Lifecycle struct {
	store      store.AttendanceStore
	issuer     *token.Issuer
	MinMinutes int
	MaxMinutes int
	Now        func() time.Time
}

func NewLifecycle(st store.AttendanceStore, issuer *token.Issuer, minMinutes, maxMinutes int) *Lifecycle {
	return &Lifecycle{
		store:      st,
		issuer:     issuer,
		MinMinutes: minMinutes,
		MaxMinutes: maxMinutes,
		Now:        time.Now,
	}
}

// Open creates a new window for the course. Out-of-bound durations are
// rejected, not clamped, so the operator sees what they asked for. A token
// collision on insert is retried once with a fresh token.
func (l *Lifecycle) Open(courseID int64, minutes int) (*models.Session, error) {
	if minutes < l.MinMinutes || minutes > l.MaxMinutes {
		return nil, fmt.Errorf("%w: %d minutes, allowed %d-%d",
			ErrDurationOutOfRange, minutes, l.MinMinutes, l.MaxMinutes)
	}

	now := l.Now().UTC()
	sess := &models.Session{
		CourseID:  courseID,
		StartTime: timeutil.ToUnix(now),
		IsOpen:    true,
		Token:     l.issuer.Issue(),
		ExpiresAt: timeutil.ToUnix(now.Add(time.Duration(minutes) * time.Minute)),
	}

	err := l.store.CreateSession(sess)
	if errors.Is(err, store.ErrConflict) {
		sess.Token = l.issuer.Issue()
		err = l.store.CreateSession(sess)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return sess, nil
}

// Extend pushes the expiry forward by delta. The new expiry is anchored at
// max(current expiry, now): extending an expired-but-not-closed window
// restarts it from the current instant instead of stacking delta onto a
// stale expiry.
func (l *Lifecycle) Extend(id int64, delta time.Duration) (*models.Session, error) {
	sess, err := l.store.GetSessionByID(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	if !sess.IsOpen {
		return nil, ErrClosed
	}

	now := l.Now().UTC()
	anchor := timeutil.FromUnix(sess.ExpiresAt)
	if now.After(anchor) {
		anchor = now
	}
	newExpiry := timeutil.ToUnix(anchor.Add(delta))

	if err := l.store.UpdateSessionExpiry(id, newExpiry); err != nil {
		return nil, err
	}
	sess.ExpiresAt = newExpiry
	return sess, nil
}

// Close marks the window explicitly closed. Closing an already-closed
// session is a no-op, not an error.
func (l *Lifecycle) Close(id int64) (*models.Session, error) {
	sess, err := l.store.GetSessionByID(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	if !sess.IsOpen {
		return sess, nil
	}

	endTime := timeutil.ToUnix(l.Now())
	if err := l.store.CloseSession(id, endTime); err != nil {
		return nil, err
	}
	sess.IsOpen = false
	sess.EndTime = &endTime
	return sess, nil
}

// ValidateForCheckIn resolves a token and decides whether the window accepts
// check-ins right now. The expiry test is time-computed: a session past its
// expiry is rejected even while is_open still reads true.
func (l *Lifecycle) ValidateForCheckIn(tok string) (CheckInStatus, *models.Session, error) {
	sess, err := l.store.GetSessionByToken(tok)
	if err != nil {
		return StatusNotFound, nil, err
	}
	if sess == nil {
		return StatusNotFound, nil, nil
	}
	if !sess.IsOpen {
		return StatusClosed, sess, nil
	}
	if sess.Expired(l.Now()) {
		return StatusExpired, sess, nil
	}
	return StatusOK, sess, nil
}

// ListActive returns sessions that are both flagged open and not past
// expiry. A stale-open session must not appear as actionable.
func (l *Lifecycle) ListActive(courseID int64) ([]models.Session, error) {
	open, err := l.store.ListOpenSessions(courseID)
	if err != nil {
		return nil, err
	}

	now := l.Now()
	active := open[:0]
	for _, s := range open {
		if s.AcceptsCheckIns(now) {
			active = append(active, s)
		}
	}
	return active, nil
}

// CheckInURL builds the public link students scan. The autocheckin flag makes
// a verified identity record immediately without a confirmation form.
func CheckInURL(baseURL, tok string) string {
	return fmt.Sprintf("%s/?session=%s&autocheckin=1", baseURL, tok)
}
