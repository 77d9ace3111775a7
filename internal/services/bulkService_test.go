package services

import (
	"errors"
	"testing"
)

func TestItemOutcome(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		okStatus   string
		wantStatus string
		wantReason string
	}{
		{
			name:       "Success",
			err:        nil,
			okStatus:   StatusMoved,
			wantStatus: StatusMoved,
		},
		{
			name:       "Validation Becomes Skipped",
			err:        NewValidationError("a folder cannot be moved into itself or its own subfolder"),
			okStatus:   StatusMoved,
			wantStatus: StatusSkipped,
			wantReason: "a folder cannot be moved into itself or its own subfolder",
		},
		{
			name:       "Wrapped Validation Becomes Skipped",
			err:        errorsJoin(NewValidationError("destination is trashed")),
			okStatus:   StatusCopied,
			wantStatus: StatusSkipped,
			wantReason: "destination is trashed",
		},
		{
			name:       "Not Found Becomes Failed",
			err:        notFound("file"),
			okStatus:   StatusCopied,
			wantStatus: StatusFailed,
			wantReason: "file not found",
		},
		{
			name:       "Missing Content Becomes Failed",
			err:        ErrMissingContent,
			okStatus:   StatusCopied,
			wantStatus: StatusFailed,
			wantReason: "file content missing from storage",
		},
		{
			name:       "Unknown Error Hidden",
			err:        errors.New("mongo: connection reset"),
			okStatus:   StatusRestored,
			wantStatus: StatusFailed,
			wantReason: "internal error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := itemOutcome("file", "abc123", tc.okStatus, tc.err)
			if got.Status != tc.wantStatus {
				t.Errorf("Expected status %q, got %q", tc.wantStatus, got.Status)
			}
			if got.Reason != tc.wantReason {
				t.Errorf("Expected reason %q, got %q", tc.wantReason, got.Reason)
			}
			if got.ID != "abc123" || got.Kind != "file" {
				t.Errorf("Item identity not echoed back: %+v", got)
			}
		})
	}
}

// errorsJoin wraps an error one level deep so errors.As has to unwrap.
func errorsJoin(err error) error {
	return &wrappedErr{err: err}
}

type wrappedErr struct{ err error }

func (w *wrappedErr) Error() string { return "bulk item: " + w.err.Error() }
func (w *wrappedErr) Unwrap() error { return w.err }
