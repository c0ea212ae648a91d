package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"titlehub/internal/microservices/http-api/repository"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("you do not have permission to perform this action")
	ErrUnauthenticated         = errors.New("authentication credentials were not provided")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
	ErrMailDelivery            = errors.New("could not send confirmation email")
)

// NonFieldErrors is the key for validation failures not tied to one field.
const NonFieldErrors = "non_field_errors"

// ValidationError carries per-field messages back to the client.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// notFound turns a repository miss into "<resource> not found".
func notFound(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %w", resource, ErrNotFound)
	}
	return err
}
