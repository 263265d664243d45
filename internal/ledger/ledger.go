// Package ledger records check-in events: at most one attendance row per
// (session, student email), gated on the session accepting check-ins.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gfragi/attendance-app/internal/access"
	"github.com/gfragi/attendance-app/internal/models"
	"github.com/gfragi/attendance-app/internal/session"
	"github.com/gfragi/attendance-app/internal/store"
	"github.com/gfragi/attendance-app/internal/timeutil"
)

type Status string

const (
	Recorded        Status = "recorded"
	AlreadyRecorded Status = "already_recorded"
	Rejected        Status = "rejected"
)

// Outcome reports what happened to a check-in attempt. Reason is set only
// for rejections; Session is set whenever the token resolved.
type Outcome struct {
	Status  Status
	Reason  string
	Session *models.Session
}

// Ledger appends attendance rows. EmailDomain is the institutional suffix
// required for self-typed emails; identities asserted by a verified channel
// skip the suffix check.
type Ledger struct {
	store       store.AttendanceStore
	sessions    *session.Lifecycle
	EmailDomain string
	Now         func() time.Time
}

func NewLedger(st store.AttendanceStore, lc *session.Lifecycle, emailDomain string) *Ledger {
	return &Ledger{
		store:       st,
		sessions:    lc,
		EmailDomain: emailDomain,
		Now:         time.Now,
	}
}

// Record validates the session window and the student identity, then inserts
// exactly one attendance row. Safe to call repeatedly: a duplicate returns
// AlreadyRecorded without a write, and a concurrent-insert conflict from the
// storage constraint maps to the same outcome.
func (l *Ledger) Record(tok, name, email string, verified bool) (Outcome, error) {
	status, sess, err := l.sessions.ValidateForCheckIn(tok)
	if err != nil {
		return Outcome{}, err
	}
	switch status {
	case session.StatusNotFound:
		return Outcome{Status: Rejected, Reason: "invalid session token"}, nil
	case session.StatusClosed:
		return Outcome{Status: Rejected, Reason: "this session is closed", Session: sess}, nil
	case session.StatusExpired:
		return Outcome{Status: Rejected, Reason: "this session has expired", Session: sess}, nil
	}

	email = access.Normalize(email)
	if email == "" {
		return Outcome{Status: Rejected, Reason: "email is required", Session: sess}, nil
	}
	if !verified && !strings.HasSuffix(email, l.EmailDomain) {
		reason := fmt.Sprintf("email must be a valid %s address", l.EmailDomain)
		return Outcome{Status: Rejected, Reason: reason, Session: sess}, nil
	}

	name = NormalizeName(name)
	if name == "" {
		if !verified {
			return Outcome{Status: Rejected, Reason: "full name is required", Session: sess}, nil
		}
		name = DisplayNameFromEmail(email)
	}

	exists, err := l.store.HasCheckIn(sess.ID, email)
	if err != nil {
		return Outcome{}, err
	}
	if exists {
		return Outcome{Status: AlreadyRecorded, Session: sess}, nil
	}

	rec := &models.Attendance{
		SessionID:    sess.ID,
		StudentName:  name,
		StudentEmail: email,
		CreatedAt:    timeutil.ToUnix(l.Now()),
	}
	err = l.store.CreateCheckIn(rec)
	if errors.Is(err, store.ErrConflict) {
		// Lost the check-then-insert race; the row is there.
		return Outcome{Status: AlreadyRecorded, Session: sess}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: Recorded, Session: sess}, nil
}

// NormalizeName collapses internal whitespace runs to single spaces and
// trims the ends.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// DisplayNameFromEmail derives a human-readable name from the local part of
// an email: split on '.', '_' and '-', title-case each fragment.
func DisplayNameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)

	words := strings.Fields(local)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
	}
	if len(words) == 0 {
		return "User"
	}
	return strings.Join(words, " ")
}
