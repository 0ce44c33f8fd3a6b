// Package llm provides the generation client and model capability directory
// for the hosted Gemini text-generation service.
package llm

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies a failed generation call. The orchestrator keys its
// retry/fallback decisions off this value, never off error text.
type ErrorKind string

// Generation error kinds
const (
	// KindRateLimited means the backend rejected the call for quota reasons;
	// the same model may succeed after a backoff.
	KindRateLimited ErrorKind = "rate_limited"
	// KindModelUnavailable means the model identifier is unknown or
	// unsupported for this credential; waiting will not help.
	KindModelUnavailable ErrorKind = "model_unavailable"
	// KindTransient means a temporary service-side failure worth one more try.
	KindTransient ErrorKind = "transient"
	// KindUnknown is anything unrecognized; it is surfaced, not retried.
	KindUnknown ErrorKind = "unknown"
)

// GenerationError wraps a failed generation call with its classification and
// the model that was asked.
type GenerationError struct {
	Kind  ErrorKind
	Model string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s) on model %s: %v", e.Kind, e.Model, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// CapabilityDiscoveryError reports that the model listing call failed. This
// is a credential or service problem and a hard stop for the whole pipeline.
type CapabilityDiscoveryError struct {
	Message string
	Cause   error
}

func (e *CapabilityDiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("capability discovery failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("capability discovery failed: %s", e.Message)
}

func (e *CapabilityDiscoveryError) Unwrap() error {
	return e.Cause
}

// classify maps a backend error to an ErrorKind. Structured signals are
// checked first: the HTTP status on *googleapi.Error, then the gRPC status
// code. Substring matching on the message is the last resort and is brittle
// by nature; it exists because some transport paths flatten errors to text.
func classify(err error) ErrorKind {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 429:
			return KindRateLimited
		case 404:
			return KindModelUnavailable
		case 500, 502, 503, 504:
			return KindTransient
		}
		return KindUnknown
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return KindRateLimited
		case codes.NotFound:
			return KindModelUnavailable
		case codes.Unavailable, codes.DeadlineExceeded:
			return KindTransient
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"):
		return KindRateLimited
	case strings.Contains(msg, "404"), strings.Contains(msg, "not found"), strings.Contains(msg, "is not supported"):
		return KindModelUnavailable
	}
	return KindUnknown
}
