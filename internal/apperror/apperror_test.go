package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "not found", err: NotFound("article", "42"), sentinel: ErrNotFound},
		{name: "validation", err: ValidationFailed("title", "title is required"), sentinel: ErrValidation},
		{name: "conflict", err: Conflict("username already registered"), sentinel: ErrConflict},
		{name: "unauthorized", err: Unauthorized("bad credentials"), sentinel: ErrUnauthorized},
		{name: "upstream", err: Upstream("search failed", errors.New("boom")), sentinel: ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
		})
	}
}

func TestSentinelMatchingThroughWrapping(t *testing.T) {
	// Services wrap repository errors with context; errors.Is must still
	// see through to the sentinel.
	wrapped := fmt.Errorf("deleting article: %w", NotFound("article", "7"))
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped AppError no longer matches ErrNotFound")
	}
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("encyclopedia search failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Upstream() lost the underlying cause")
	}
	if err.Error() != "encyclopedia search failed" {
		t.Errorf("Error() = %q, want the human-readable message", err.Error())
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("article", "42")
	want := "article not found with id 42"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationFieldIsRecorded(t *testing.T) {
	err := ValidationFailed("url", "article url is required")
	if err.Field != "url" {
		t.Errorf("Field = %q, want %q", err.Field, "url")
	}
}
