package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: ErrorTypePermanent,
		},
		{
			name:     "explicit degraded error",
			err:      NewDegradedError(errors.New("bad payload"), "extract", "fallback"),
			expected: ErrorTypeDegraded,
		},
		{
			name:     "wrapped degraded error",
			err:      fmt.Errorf("record 3: %w", NewDegradedError(errors.New("bad"), "", "")),
			expected: ErrorTypeDegraded,
		},
		{
			name:     "explicit permanent error",
			err:      NewPermanentError(errors.New("missing file"), "cannot read input"),
			expected: ErrorTypePermanent,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: ErrorTypePermanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorType(tt.err); got != tt.expected {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFallbackContent(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewDegradedError(errors.New("invalid json"), "extract", "plain text"))
	content, ok := FallbackContent(err)
	if !ok || content != "plain text" {
		t.Fatalf("FallbackContent() = %q, %v", content, ok)
	}
	if _, ok := FallbackContent(errors.New("other")); ok {
		t.Fatalf("expected no fallback for plain error")
	}
}

func TestErrorMessages(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	degraded := NewDegradedError(inner, "tool call payload", "")
	if got := degraded.Error(); got != "tool call payload: unexpected end of JSON input" {
		t.Errorf("unexpected degraded message %q", got)
	}
	if !errors.Is(degraded, inner) {
		t.Errorf("expected degraded error to unwrap to inner error")
	}

	permanent := &PermanentError{Err: inner}
	if got := permanent.Error(); got != "permanent error: unexpected end of JSON input" {
		t.Errorf("unexpected permanent message %q", got)
	}
	if !IsPermanent(fmt.Errorf("ctx: %w", permanent)) {
		t.Errorf("expected wrapped permanent error to be detected")
	}
}
