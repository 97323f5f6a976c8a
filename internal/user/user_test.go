package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func validUser() User {
	return User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Smith",
		Age:      intPtr(30),
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validUser().Validate())

	noAge := validUser()
	noAge.Age = nil
	require.NoError(t, noAge.Validate())
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*User)
		field  string
	}{
		{"short username", func(u *User) { u.Username = "ab" }, "username"},
		{"missing email", func(u *User) { u.Email = "" }, "email"},
		{"bad email", func(u *User) { u.Email = "not-an-email" }, "email"},
		{"short full name", func(u *User) { u.FullName = "x" }, "full_name"},
		{"age too low", func(u *User) { u.Age = intPtr(0) }, "age"},
		{"age too high", func(u *User) { u.Age = intPtr(200) }, "age"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := validUser()
			tc.mutate(&u)

			err := u.Validate()
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Contains(t, vErr.FieldErrors, tc.field)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	v := &ValidationError{}
	v.add("email", "email is invalid")
	v.add("age", "age must be between 1 and 150")
	require.Equal(t, "validation error: age: age must be between 1 and 150; email: email is invalid", v.Error())
}
