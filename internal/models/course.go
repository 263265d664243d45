package models

import (
	"github.com/go-playground/validator/v10"
)

type Course struct {
	ID    int64  `db:"id" json:"id"`
	Code  string `db:"code" json:"code" validate:"required"`
	Title string `db:"title" json:"title" validate:"required"`
}

// CourseInstructor links an instructor account to a course it teaches.
// unique_together is handled on DB level:
/*
CREATE TABLE course_instructors (
    id BIGSERIAL PRIMARY KEY,
    course_id BIGINT NOT NULL REFERENCES courses(id),
    user_id BIGINT NOT NULL REFERENCES users(id),
    CONSTRAINT course_instructors_course_user_uc UNIQUE (course_id, user_id)
);
*/
type CourseInstructor struct {
	ID       int64 `db:"id" json:"id"`
	CourseID int64 `db:"course_id" json:"course_id"`
	UserID   int64 `db:"user_id" json:"user_id"`
}

func (c *Course) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}
