package docgen

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FailureKind distinguishes the terminal failure modes of a generation
// request. Input and upstream kinds never consume a retry; only validation
// failures do.
type FailureKind string

const (
	FailureInvalidInput        FailureKind = "invalid_input"
	FailureNoteTooLong         FailureKind = "note_too_long"
	FailureRateLimited         FailureKind = "rate_limited"
	FailurePaymentRequired     FailureKind = "payment_required"
	FailureUpstreamUnavailable FailureKind = "upstream_unavailable"
	FailureMalformedResponse   FailureKind = "malformed_response"
	FailureValidationExhausted FailureKind = "validation_exhausted"
)

type GenerationError struct {
	Kind    FailureKind
	Message string

	// RetryAfter is a backoff hint from the upstream model endpoint.
	// Set only for FailureRateLimited.
	RetryAfter time.Duration

	// Final validation outcome. Set only for FailureValidationExhausted.
	ValidationErrors   []string
	ValidationWarnings []string

	Err error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.ValidationErrors) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.ValidationErrors, "; "))
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// UpstreamError wraps a failure of the external model endpoint into the
// request's failure taxonomy. kind must be one of the upstream kinds.
func UpstreamError(kind FailureKind, msg string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Message: msg, Err: err}
}

// KindOf extracts the failure kind from err, or "" when err is not a
// generation failure.
func KindOf(err error) FailureKind {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

func invalidInput(format string, args ...any) *GenerationError {
	return &GenerationError{Kind: FailureInvalidInput, Message: fmt.Sprintf(format, args...)}
}
