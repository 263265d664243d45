// Package access holds the pure role predicates that gate every mutating or
// scoped-read operation. The allow-sets come from configuration; there is no
// ambient global state.
package access

import (
	"strings"
)

type Policy struct {
	admins      map[string]struct{}
	instructors map[string]struct{}
	secretaries map[string]struct{}
}

func NewPolicy(admins, instructors, secretaries []string) Policy {
	return Policy{
		admins:      toSet(admins),
		instructors: toSet(instructors),
		secretaries: toSet(secretaries),
	}
}

func toSet(emails []string) map[string]struct{} {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = Normalize(e)
		if e == "" {
			continue
		}
		set[e] = struct{}{}
	}
	return set
}

// Normalize trims and lower-cases an email for comparison and storage.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p Policy) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	_, ok := p.admins[Normalize(email)]
	return ok
}

// IsInstructor reports whether email is in the instructor set or is an admin.
func (p Policy) IsInstructor(email string) bool {
	if email == "" {
		return false
	}
	if _, ok := p.instructors[Normalize(email)]; ok {
		return true
	}
	return p.IsAdmin(email)
}

// IsSecretary reports whether email has report-read access. Secretaries do
// not get user/course management rights.
func (p Policy) IsSecretary(email string) bool {
	if email == "" {
		return false
	}
	if _, ok := p.secretaries[Normalize(email)]; ok {
		return true
	}
	return p.IsAdmin(email)
}
