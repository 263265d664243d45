package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gfragi/attendance-app/internal/access"
	"github.com/gfragi/attendance-app/internal/ledger"
	"github.com/gfragi/attendance-app/internal/models"
	"github.com/gfragi/attendance-app/internal/report"
	"github.com/gfragi/attendance-app/internal/session"
	"github.com/gfragi/attendance-app/internal/store"
	"github.com/gfragi/attendance-app/internal/timeutil"
	"github.com/gfragi/attendance-app/internal/token"
)

type Service struct {
	Config   *Config
	Store    store.AttendanceStore
	Policy   access.Policy
	Sessions *session.Lifecycle
	Ledger   *ledger.Ledger
	Reports  *report.Aggregator
	Resolver IdentityResolver
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	zone, err := timeutil.LoadZone(config.Reporting.Timezone)
	if err != nil {
		st.Close()
		return nil, err
	}

	policy := access.NewPolicy(config.Roles.Admins, config.Roles.Instructors, config.Roles.Secretaries)
	lifecycle := session.NewLifecycle(st, token.NewIssuer(), config.CheckIn.MinMinutes, config.CheckIn.MaxMinutes)

	resolver, err := newResolver(config)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to init identity resolver: %w", err)
	}

	return &Service{
		Config:   config,
		Store:    st,
		Policy:   policy,
		Sessions: lifecycle,
		Ledger:   ledger.NewLedger(st, lifecycle, config.CheckIn.EmailDomain),
		Reports:  report.NewAggregator(st, zone),
		Resolver: resolver,
	}, nil
}

func newResolver(config *Config) (IdentityResolver, error) {
	switch config.Server.AuthMode {
	case "proxy":
		return HeaderResolver{}, nil
	case "sso":
		return NewRedisResolver(config)
	default:
		return ParamResolver{}, nil
	}
}

// OpenSession opens a timed attendance window for the course, on behalf of
// an instructor assigned to it (or an admin). minutes == 0 uses the
// configured default.
func (s *Service) OpenSession(caller, courseCode string, minutes int) (*models.Session, *models.Course, error) {
	course, err := s.Store.GetCourseByCode(courseCode)
	if err != nil {
		return nil, nil, err
	}
	if course == nil {
		return nil, nil, fmt.Errorf("%w: course %s", ErrNotFound, courseCode)
	}
	if err := s.authorizeCourse(caller, course.ID); err != nil {
		return nil, nil, err
	}

	if minutes == 0 {
		minutes = s.Config.CheckIn.DefaultMinutes
	}
	sess, err := s.Sessions.Open(course.ID, minutes)
	if err != nil {
		return nil, nil, err
	}
	return sess, course, nil
}

// ActiveSessions lists the course's windows that still accept check-ins.
func (s *Service) ActiveSessions(caller, courseCode string) ([]models.Session, error) {
	course, err := s.Store.GetCourseByCode(courseCode)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseCode)
	}
	if err := s.authorizeCourse(caller, course.ID); err != nil {
		return nil, err
	}
	return s.Sessions.ListActive(course.ID)
}

func (s *Service) ExtendSession(caller string, id int64, minutes int) (*models.Session, error) {
	if err := s.authorizeSession(caller, id); err != nil {
		return nil, err
	}
	if minutes <= 0 {
		minutes = 10
	}
	return s.Sessions.Extend(id, time.Duration(minutes)*time.Minute)
}

func (s *Service) CloseSession(caller string, id int64) (*models.Session, error) {
	if err := s.authorizeSession(caller, id); err != nil {
		return nil, err
	}
	return s.Sessions.Close(id)
}

func (s *Service) SessionCheckInCount(id int64) (int64, error) {
	return s.Store.CountCheckIns(id)
}

// Courses lists what the caller can see: everything for admins and
// secretaries, own assignments for instructors.
func (s *Service) Courses(caller string) ([]models.Course, error) {
	switch {
	case s.Policy.IsAdmin(caller) || s.Policy.IsSecretary(caller):
		return s.Store.ListCourses()
	case s.Policy.IsInstructor(caller):
		return s.Store.ListCoursesByInstructor(access.Normalize(caller))
	}
	return nil, ErrUnauthorized
}

func (s *Service) Users(role string) ([]models.User, error) {
	return s.Store.ListUsersByRole(role)
}

func (s *Service) authorizeSession(caller string, sessionID int64) error {
	sess, err := s.Store.GetSessionByID(sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	return s.authorizeCourse(caller, sess.CourseID)
}

// authorizeCourse passes admins through and requires instructors to be
// assigned to the course via course_instructors.
func (s *Service) authorizeCourse(caller string, courseID int64) error {
	if s.Policy.IsAdmin(caller) {
		return nil
	}
	if !s.Policy.IsInstructor(caller) {
		return ErrUnauthorized
	}

	u, err := s.Store.GetUserByEmail(access.Normalize(caller))
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUnauthorized
	}
	assigned, err := s.Store.InstructorAssigned(courseID, u.ID)
	if err != nil {
		return err
	}
	if !assigned {
		return ErrUnauthorized
	}
	return nil
}

// ReportRows fetches the flat check-in rows for the caller's scope: admins
// and secretaries see all courses, instructors only the courses they teach.
func (s *Service) ReportRows(caller string, courseIDs []int64, from, to time.Time) ([]report.Row, error) {
	scope := ""
	switch {
	case s.Policy.IsAdmin(caller) || s.Policy.IsSecretary(caller):
		// all courses
	case s.Policy.IsInstructor(caller):
		scope = access.Normalize(caller)
	default:
		return nil, ErrUnauthorized
	}
	return s.Reports.Query(scope, courseIDs, from, to)
}

// AddUser creates a user; a duplicate email is a soft no-op reported via
// created=false.
func (s *Service) AddUser(name, email, role string) (*models.User, bool, error) {
	u := &models.User{
		Name:  strings.TrimSpace(name),
		Email: access.Normalize(email),
		Role:  role,
	}
	if err := u.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	existing, err := s.Store.GetUserByEmail(u.Email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	err = s.Store.CreateUser(u)
	if errors.Is(err, store.ErrConflict) {
		existing, gerr := s.Store.GetUserByEmail(u.Email)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// AddCourse creates a course; a duplicate code is a soft no-op.
func (s *Service) AddCourse(code, title string) (*models.Course, bool, error) {
	c := &models.Course{
		Code:  strings.TrimSpace(code),
		Title: strings.TrimSpace(title),
	}
	if err := c.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	existing, err := s.Store.GetCourseByCode(c.Code)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	err = s.Store.CreateCourse(c)
	if errors.Is(err, store.ErrConflict) {
		existing, gerr := s.Store.GetCourseByCode(c.Code)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// AssignInstructor links an existing instructor to an existing course.
// An existing link is a soft no-op.
func (s *Service) AssignInstructor(courseCode, instructorEmail string) (bool, error) {
	course, err := s.Store.GetCourseByCode(strings.TrimSpace(courseCode))
	if err != nil {
		return false, err
	}
	if course == nil {
		return false, fmt.Errorf("%w: course %s", ErrNotFound, courseCode)
	}

	u, err := s.Store.GetUserByEmail(access.Normalize(instructorEmail))
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, fmt.Errorf("%w: user %s", ErrNotFound, instructorEmail)
	}

	assigned, err := s.Store.InstructorAssigned(course.ID, u.ID)
	if err != nil {
		return false, err
	}
	if assigned {
		return false, nil
	}

	err = s.Store.AssignInstructor(course.ID, u.ID)
	if errors.Is(err, store.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ImportRow is one line of a bulk courses/instructors import.
type ImportRow struct {
	CourseCode      string `json:"course_code"`
	CourseTitle     string `json:"course_title"`
	InstructorName  string `json:"instructor_name"`
	InstructorEmail string `json:"instructor_email"`
}

type ImportSummary struct {
	Courses     int `json:"courses_added"`
	Instructors int `json:"instructors_added"`
	Assignments int `json:"assignments_added"`
	Skipped     int `json:"rows_skipped"`
}

// ImportAssignments idempotently ensures course, instructor user and
// course-instructor link for each row. Rows missing any field are skipped;
// the rows around them still import.
func (s *Service) ImportAssignments(rows []ImportRow) (ImportSummary, error) {
	var summary ImportSummary

	for _, row := range rows {
		code := strings.TrimSpace(row.CourseCode)
		title := strings.TrimSpace(row.CourseTitle)
		name := strings.TrimSpace(row.InstructorName)
		email := access.Normalize(row.InstructorEmail)

		if code == "" || title == "" || name == "" || email == "" {
			summary.Skipped++
			continue
		}

		course, created, err := s.AddCourse(code, title)
		if err != nil {
			return summary, fmt.Errorf("import row %s: %w", code, err)
		}
		if created {
			summary.Courses++
		}

		_, created, err = s.AddUser(name, email, models.RoleInstructor)
		if err != nil {
			return summary, fmt.Errorf("import row %s: %w", code, err)
		}
		if created {
			summary.Instructors++
		}

		created, err = s.AssignInstructor(course.Code, email)
		if err != nil {
			return summary, fmt.Errorf("import row %s: %w", code, err)
		}
		if created {
			summary.Assignments++
		}
	}

	return summary, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if closer, ok := s.Resolver.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("resolver: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
