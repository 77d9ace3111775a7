package services

import (
	"errors"
	"testing"
)

func TestNotFoundWrapping(t *testing.T) {
	err := notFound("folder")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("Expected notFound to wrap ErrNotFound")
	}
	if err.Error() != "folder not found" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	t.Run("Bare Message", func(t *testing.T) {
		err := NewValidationError("nothing to move")
		if err.Error() != "nothing to move" {
			t.Errorf("Unexpected message: %q", err.Error())
		}
		if err.Fields != nil {
			t.Errorf("Expected no field map, got %v", err.Fields)
		}
	})

	t.Run("Field Error", func(t *testing.T) {
		err := NewFieldError("expires_at", "expiry must be in the future")
		if err.Fields["expires_at"] != "expiry must be in the future" {
			t.Errorf("Expected field message, got %v", err.Fields)
		}
	})

	t.Run("Detectable Through Wrapping", func(t *testing.T) {
		var verr *ValidationError
		wrapped := errorsJoin(NewValidationError("bad input"))
		if !errors.As(wrapped, &verr) {
			t.Fatal("Expected errors.As to find the ValidationError")
		}
		if verr.Msg != "bad input" {
			t.Errorf("Unexpected message: %q", verr.Msg)
		}
	})
}

func TestParseID(t *testing.T) {
	t.Run("Valid Hex", func(t *testing.T) {
		oid, err := parseID("64f1b2c3d4e5f6a7b8c9d0e1", "file")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if oid.IsZero() {
			t.Error("Expected a non-zero ObjectID")
		}
	})

	t.Run("Malformed Acts Like Missing", func(t *testing.T) {
		_, err := parseID("definitely-not-hex", "file")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
		if err.Error() != "file not found" {
			t.Errorf("Unexpected message: %q", err.Error())
		}
	})

	t.Run("Empty String", func(t *testing.T) {
		_, err := parseID("", "user")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}
