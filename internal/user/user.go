// Package user is the users domain module: entity, validation,
// repository implementations, service layer, and the module's schema
// migrations.
package user

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// User is the domain entity persisted by the repositories.
type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	FullName  string
	Age       *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams carries the fields accepted when creating a user.
type CreateParams struct {
	Username string
	Email    string
	FullName string
	Age      *int
}

// UpdateParams carries a partial update; nil fields are left as-is.
type UpdateParams struct {
	Username *string
	Email    *string
	FullName *string
	Age      *int
}

// Validate checks the entity's field constraints.
func (u User) Validate() error {
	vErr := &ValidationError{}

	if n := len(u.Username); n < 3 || n > 50 {
		vErr.add("username", "username must be between 3 and 50 characters")
	}
	if u.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(u.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if n := len(u.FullName); n < 2 || n > 100 {
		vErr.add("full_name", "full name must be between 2 and 100 characters")
	}
	if u.Age != nil && (*u.Age < 1 || *u.Age > 150) {
		vErr.add("age", "age must be between 1 and 150")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
