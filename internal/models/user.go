package models

import (
	"github.com/go-playground/validator/v10"
)

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

type User struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name" validate:"required"`
	Email string `db:"email" json:"email" validate:"required,email"`
	Role  string `db:"role" json:"role" validate:"required,oneof=admin instructor"`
}

func (u *User) Validate() error {
	validate := validator.New()
	return validate.Struct(u)
}
