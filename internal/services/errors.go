package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors the handlers translate into HTTP statuses. Ownership
// failures deliberately surface as not-found so the API never confirms
// that a foreign entity exists.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpiredLink        = errors.New("share link has expired")
	ErrWrongPassword      = errors.New("wrong or missing password")
	ErrMissingContent     = errors.New("file content missing from storage")
)

// notFound wraps ErrNotFound with the resource name, e.g. "folder not found".
func notFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// ValidationError is a business-rule violation surfaced as HTTP 422,
// optionally carrying field-level messages.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with a bare message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// NewFieldError builds a ValidationError blaming a single field.
func NewFieldError(field, msg string) *ValidationError {
	return &ValidationError{Msg: msg, Fields: map[string]string{field: msg}}
}

// parseID converts a hex id from the API into an ObjectID. Malformed ids
// behave exactly like absent entities.
func parseID(id, resource string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound(resource)
	}
	return oid, nil
}
