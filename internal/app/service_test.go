package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfragi/attendance-app/internal/access"
	"github.com/gfragi/attendance-app/internal/models"
	"github.com/gfragi/attendance-app/internal/store/sqlite"
)

func setupTestService(t *testing.T) (*Service, func()) {
	st, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err, "Failed to create store")

	s := &Service{
		Store: st,
		Policy: access.NewPolicy(
			[]string{"admin@uni.example.edu"},
			[]string{"teach@uni.example.edu"},
			nil,
		),
	}
	return s, func() {
		require.NoError(t, st.Close())
	}
}

func TestAddUser(t *testing.T) {
	s, cleanup := setupTestService(t)
	defer cleanup()

	user, created, err := s.AddUser("Maria Pap", " Maria.Pap@UNI.example.edu ", models.RoleInstructor)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "maria.pap@uni.example.edu", user.Email)

	t.Run("duplicate email is a soft no-op", func(t *testing.T) {
		again, created, err := s.AddUser("Someone Else", "maria.pap@uni.example.edu", models.RoleAdmin)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, "Maria Pap", again.Name)
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		_, _, err := s.AddUser("No Email", "", models.RoleInstructor)
		assert.ErrorIs(t, err, ErrValidation)

		_, _, err = s.AddUser("Bad Role", "x@uni.example.edu", "student")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAssignInstructor(t *testing.T) {
	s, cleanup := setupTestService(t)
	defer cleanup()

	_, _, err := s.AddCourse("cs101", "Intro to CS")
	require.NoError(t, err)
	_, _, err = s.AddUser("Maria Pap", "maria.pap@uni.example.edu", models.RoleInstructor)
	require.NoError(t, err)

	created, err := s.AssignInstructor("cs101", "maria.pap@uni.example.edu")
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("double assignment is a soft no-op", func(t *testing.T) {
		created, err := s.AssignInstructor("cs101", "maria.pap@uni.example.edu")
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("unknown course or user", func(t *testing.T) {
		_, err := s.AssignInstructor("nope101", "maria.pap@uni.example.edu")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.AssignInstructor("cs101", "nobody@uni.example.edu")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestImportAssignments(t *testing.T) {
	s, cleanup := setupTestService(t)
	defer cleanup()

	rows := []ImportRow{
		{CourseCode: "cs101", CourseTitle: "Intro to CS", InstructorName: "Maria Pap", InstructorEmail: "maria.pap@uni.example.edu"},
		{CourseCode: "ds202", CourseTitle: "Data Science", InstructorName: "John Doe", InstructorEmail: ""},
		{CourseCode: "ai400", CourseTitle: "AI", InstructorName: "John Doe", InstructorEmail: "john.doe@uni.example.edu"},
	}

	summary, err := s.ImportAssignments(rows)
	require.NoError(t, err)

	// The incomplete row is skipped; rows around it still import.
	assert.Equal(t, 2, summary.Courses)
	assert.Equal(t, 2, summary.Instructors)
	assert.Equal(t, 2, summary.Assignments)
	assert.Equal(t, 1, summary.Skipped)

	course, err := s.Store.GetCourseByCode("ai400")
	require.NoError(t, err)
	require.NotNil(t, course)

	skipped, err := s.Store.GetCourseByCode("ds202")
	require.NoError(t, err)
	assert.Nil(t, skipped)

	t.Run("import is idempotent", func(t *testing.T) {
		summary, err := s.ImportAssignments(rows)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Courses)
		assert.Equal(t, 0, summary.Instructors)
		assert.Equal(t, 0, summary.Assignments)
		assert.Equal(t, 1, summary.Skipped)
	})
}

func TestCoursesScoping(t *testing.T) {
	s, cleanup := setupTestService(t)
	defer cleanup()

	_, err := s.ImportAssignments([]ImportRow{
		{CourseCode: "cs101", CourseTitle: "Intro to CS", InstructorName: "Teach", InstructorEmail: "teach@uni.example.edu"},
		{CourseCode: "ds202", CourseTitle: "Data Science", InstructorName: "Other", InstructorEmail: "other@uni.example.edu"},
	})
	require.NoError(t, err)

	t.Run("admin sees everything", func(t *testing.T) {
		courses, err := s.Courses("admin@uni.example.edu")
		require.NoError(t, err)
		assert.Len(t, courses, 2)
	})

	t.Run("instructor sees own assignments", func(t *testing.T) {
		courses, err := s.Courses("teach@uni.example.edu")
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "cs101", courses[0].Code)
	})

	t.Run("unknown caller is refused", func(t *testing.T) {
		_, err := s.Courses("stranger@uni.example.edu")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
