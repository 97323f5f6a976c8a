package user

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when the requested user does not exist.
var ErrNotFound = errors.New("user: not found")

// ValidationError carries field-level validation failures so the HTTP
// layer can surface them individually.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = map[string]string{}
	}
	v.FieldErrors[field] = message
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) Error() string {
	if !v.HasErrors() {
		return "validation error"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v.FieldErrors[field]))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	v := &ValidationError{}
	v.add(field, fmt.Sprintf(format, args...))
	return v
}
