package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/indusense/testgen/internal/models"
)

// ErrInvalidProject matches every *Error.
var ErrInvalidProject = errors.New("invalid project")

// Error carries the accumulated findings of a failed project validation.
type Error struct {
	Errors   []string
	Warnings []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("project validation failed: %s", strings.Join(e.Errors, "; "))
}

// Is matches ErrInvalidProject.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidProject
}

// ErrorFrom returns a *Error for a failed result, or nil when it passed.
func ErrorFrom(r models.ValidationResult) error {
	if r.Passed {
		return nil
	}
	return &Error{Errors: r.Errors, Warnings: r.Warnings}
}
