package llm

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{
			name:     "http 429",
			err:      &googleapi.Error{Code: 429, Message: "quota exceeded"},
			expected: KindRateLimited,
		},
		{
			name:     "http 404",
			err:      &googleapi.Error{Code: 404, Message: "model not found"},
			expected: KindModelUnavailable,
		},
		{
			name:     "http 500",
			err:      &googleapi.Error{Code: 500, Message: "internal error"},
			expected: KindTransient,
		},
		{
			name:     "http 503",
			err:      &googleapi.Error{Code: 503, Message: "overloaded"},
			expected: KindTransient,
		},
		{
			name:     "http 400 is unknown",
			err:      &googleapi.Error{Code: 400, Message: "invalid argument"},
			expected: KindUnknown,
		},
		{
			name:     "wrapped googleapi error",
			err:      fmt.Errorf("call failed: %w", &googleapi.Error{Code: 429}),
			expected: KindRateLimited,
		},
		{
			name:     "grpc resource exhausted",
			err:      status.Error(codes.ResourceExhausted, "quota"),
			expected: KindRateLimited,
		},
		{
			name:     "grpc not found",
			err:      status.Error(codes.NotFound, "no such model"),
			expected: KindModelUnavailable,
		},
		{
			name:     "grpc unavailable",
			err:      status.Error(codes.Unavailable, "try later"),
			expected: KindTransient,
		},
		{
			name:     "grpc deadline exceeded",
			err:      status.Error(codes.DeadlineExceeded, "timeout"),
			expected: KindTransient,
		},
		{
			name:     "plain text quota message",
			err:      errors.New("Error 429: Resource has been exhausted (e.g. check quota)"),
			expected: KindRateLimited,
		},
		{
			name:     "plain text rate limit message",
			err:      errors.New("rate limit reached, slow down"),
			expected: KindRateLimited,
		},
		{
			name:     "plain text unsupported model",
			err:      errors.New("models/gemini-0.5 is not found or is not supported for generateContent"),
			expected: KindModelUnavailable,
		},
		{
			name:     "unrecognized error",
			err:      errors.New("something odd happened"),
			expected: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.expected {
				t.Errorf("classify(%v) = %s, want %s", tt.err, got, tt.expected)
			}
		})
	}
}

func TestGenerationError_Unwrap(t *testing.T) {
	cause := &googleapi.Error{Code: 429}
	err := &GenerationError{Kind: KindRateLimited, Model: "gemini-1.5-flash", Cause: cause}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Error("GenerationError should unwrap to its cause")
	}
	if got := err.Error(); got == "" {
		t.Error("Error() should not be empty")
	}
}
