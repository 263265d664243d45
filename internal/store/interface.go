package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/gfragi/attendance-app/internal/models"
)

// ErrConflict is returned when an insert trips a uniqueness constraint.
// Callers map it to domain outcomes (duplicate check-in, token collision)
// instead of propagating a hard failure.
var ErrConflict = errors.New("unique constraint conflict")

type AttendanceStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateUser(u *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	ListUsersByRole(role string) ([]models.User, error)

	CreateCourse(c *models.Course) error
	GetCourseByCode(code string) (*models.Course, error)
	GetCourseByID(id int64) (*models.Course, error)
	ListCourses() ([]models.Course, error)
	ListCoursesByInstructor(email string) ([]models.Course, error)

	AssignInstructor(courseID, userID int64) error
	InstructorAssigned(courseID, userID int64) (bool, error)

	CreateSession(s *models.Session) error
	GetSessionByToken(token string) (*models.Session, error)
	GetSessionByID(id int64) (*models.Session, error)
	ListOpenSessions(courseID int64) ([]models.Session, error)
	UpdateSessionExpiry(id, expiresAt int64) error
	CloseSession(id, endTime int64) error

	CreateCheckIn(a *models.Attendance) error
	HasCheckIn(sessionID int64, email string) (bool, error)
	CountCheckIns(sessionID int64) (int64, error)

	FetchReportRows(instructorEmail string, courseIDs []int64, from, to int64) ([]ReportRow, error)
}

// BaseStore provides common functionality for different DB implementations.
// Converter rewrites `?` placeholders for the dialect; IsConflict recognizes
// the dialect's unique-violation error.
type BaseStore struct {
	DB         *sqlx.DB
	Converter  func(string) string
	IsConflict func(error) bool
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) wrapConflict(err error) error {
	if err == nil {
		return nil
	}
	if s.IsConflict != nil && s.IsConflict(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func (s *BaseStore) CreateUser(u *models.User) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO users (name, email, role)
		VALUES (:name, :email, :role)
	`, u)
	if err = s.wrapConflict(err); err != nil {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	created, err := s.GetUserByEmail(u.Email)
	if err != nil {
		return err
	}
	u.ID = created.ID
	return nil
}

func (s *BaseStore) GetUserByEmail(email string) (*models.User, error) {
	var u models.User
	query := s.Converter(`
		SELECT id, name, email, role
		FROM users
		WHERE email = ?
	`)

	err := s.DB.Get(&u, query, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *BaseStore) ListUsersByRole(role string) ([]models.User, error) {
	var users []models.User
	query := s.Converter(`
		SELECT id, name, email, role
		FROM users
		WHERE role = ?
		ORDER BY email ASC
	`)

	err := s.DB.Select(&users, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *BaseStore) CreateCourse(c *models.Course) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO courses (code, title)
		VALUES (:code, :title)
	`, c)
	if err = s.wrapConflict(err); err != nil {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to create course: %w", err)
	}

	created, err := s.GetCourseByCode(c.Code)
	if err != nil {
		return err
	}
	c.ID = created.ID
	return nil
}

func (s *BaseStore) GetCourseByCode(code string) (*models.Course, error) {
	var c models.Course
	query := s.Converter(`
		SELECT id, code, title
		FROM courses
		WHERE code = ?
	`)

	err := s.DB.Get(&c, query, code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &c, nil
}

func (s *BaseStore) GetCourseByID(id int64) (*models.Course, error) {
	var c models.Course
	query := s.Converter(`
		SELECT id, code, title
		FROM courses
		WHERE id = ?
	`)

	err := s.DB.Get(&c, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &c, nil
}

func (s *BaseStore) ListCourses() ([]models.Course, error) {
	var courses []models.Course
	err := s.DB.Select(&courses, `
		SELECT id, code, title
		FROM courses
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *BaseStore) ListCoursesByInstructor(email string) ([]models.Course, error) {
	var courses []models.Course
	query := s.Converter(`
		SELECT c.id, c.code, c.title
		FROM courses c
		JOIN course_instructors ci ON ci.course_id = c.id
		JOIN users u ON u.id = ci.user_id
		WHERE u.email = ?
		AND u.role = 'instructor'
		ORDER BY c.code ASC
	`)

	err := s.DB.Select(&courses, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructor courses: %w", err)
	}
	return courses, nil
}

func (s *BaseStore) AssignInstructor(courseID, userID int64) error {
	query := s.Converter(`
		INSERT INTO course_instructors (course_id, user_id)
		VALUES (?, ?)
	`)
	_, err := s.DB.Exec(query, courseID, userID)
	if err = s.wrapConflict(err); err != nil {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to assign instructor: %w", err)
	}
	return nil
}

func (s *BaseStore) InstructorAssigned(courseID, userID int64) (bool, error) {
	var count int64
	query := s.Converter(`
		SELECT COUNT(*)
		FROM course_instructors
		WHERE course_id = ?
		AND user_id = ?
	`)

	if err := s.DB.Get(&count, query, courseID, userID); err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return count > 0, nil
}

func (s *BaseStore) CreateSession(sess *models.Session) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO sessions (course_id, start_time, end_time, is_open, token, expires_at)
		VALUES (:course_id, :start_time, :end_time, :is_open, :token, :expires_at)
	`, sess)
	if err = s.wrapConflict(err); err != nil {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	created, err := s.GetSessionByToken(sess.Token)
	if err != nil {
		return err
	}
	sess.ID = created.ID
	return nil
}

func (s *BaseStore) GetSessionByToken(token string) (*models.Session, error) {
	var sess models.Session
	query := s.Converter(`
		SELECT id, course_id, start_time, end_time, is_open, token, expires_at
		FROM sessions
		WHERE token = ?
	`)

	err := s.DB.Get(&sess, query, token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

func (s *BaseStore) GetSessionByID(id int64) (*models.Session, error) {
	var sess models.Session
	query := s.Converter(`
		SELECT id, course_id, start_time, end_time, is_open, token, expires_at
		FROM sessions
		WHERE id = ?
	`)

	err := s.DB.Get(&sess, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// ListOpenSessions returns sessions still flagged open, newest first. The
// expiry cut is applied by the caller so the check stays time-computed
// rather than flag-only.
func (s *BaseStore) ListOpenSessions(courseID int64) ([]models.Session, error) {
	var sessions []models.Session
	query := s.Converter(`
		SELECT id, course_id, start_time, end_time, is_open, token, expires_at
		FROM sessions
		WHERE course_id = ?
		AND is_open = TRUE
		ORDER BY start_time DESC
	`)

	err := s.DB.Select(&sessions, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	return sessions, nil
}

func (s *BaseStore) UpdateSessionExpiry(id, expiresAt int64) error {
	query := s.Converter(`
		UPDATE sessions
		SET expires_at = ?
		WHERE id = ?
	`)
	if _, err := s.DB.Exec(query, expiresAt, id); err != nil {
		return fmt.Errorf("failed to update session expiry: %w", err)
	}
	return nil
}

// CloseSession is idempotent: the is_open guard makes a second close keep the
// original end_time.
func (s *BaseStore) CloseSession(id, endTime int64) error {
	query := s.Converter(`
		UPDATE sessions
		SET is_open = FALSE, end_time = ?
		WHERE id = ?
		AND is_open = TRUE
	`)
	if _, err := s.DB.Exec(query, endTime, id); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

func (s *BaseStore) CreateCheckIn(a *models.Attendance) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO attendance (session_id, student_name, student_email, created_at)
		VALUES (:session_id, :student_name, :student_email, :created_at)
	`, a)
	if err = s.wrapConflict(err); err != nil {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

func (s *BaseStore) HasCheckIn(sessionID int64, email string) (bool, error) {
	var count int64
	query := s.Converter(`
		SELECT COUNT(*)
		FROM attendance
		WHERE session_id = ?
		AND student_email = ?
	`)

	if err := s.DB.Get(&count, query, sessionID, email); err != nil {
		return false, fmt.Errorf("failed to check attendance: %w", err)
	}
	return count > 0, nil
}

func (s *BaseStore) CountCheckIns(sessionID int64) (int64, error) {
	var count int64
	query := s.Converter(`
		SELECT COUNT(*)
		FROM attendance
		WHERE session_id = ?
	`)

	if err := s.DB.Get(&count, query, sessionID); err != nil {
		return 0, fmt.Errorf("failed to count check-ins: %w", err)
	}
	return count, nil
}

// FetchReportRows joins check-ins to sessions and courses, optionally scoped
// to one instructor's courses and to a course id set. The date filter is
// half-open: from inclusive, to exclusive.
func (s *BaseStore) FetchReportRows(instructorEmail string, courseIDs []int64, from, to int64) ([]ReportRow, error) {
	query := `
		SELECT
			c.code AS course_code,
			c.title AS course_title,
			sess.id AS session_id,
			sess.start_time AS session_start,
			a.student_name,
			a.student_email,
			a.created_at AS check_in_at
		FROM attendance a
		JOIN sessions sess ON sess.id = a.session_id
		JOIN courses c ON c.id = sess.course_id
	`
	args := []interface{}{}

	if instructorEmail != "" {
		query += `
		JOIN course_instructors ci ON ci.course_id = c.id
		JOIN users u ON u.id = ci.user_id AND u.email = ?
		`
		args = append(args, instructorEmail)
	}

	query += `
		WHERE a.created_at >= ?
		AND a.created_at < ?
	`
	args = append(args, from, to)

	if len(courseIDs) > 0 {
		query += ` AND c.id IN (?)`
		args = append(args, courseIDs)
	}

	query += ` ORDER BY a.created_at ASC, c.code ASC`

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build report query: %w", err)
	}

	var rows []ReportRow
	if err := s.DB.Select(&rows, s.Converter(query), expanded...); err != nil {
		return nil, fmt.Errorf("failed to fetch report rows: %w", err)
	}
	return rows, nil
}
