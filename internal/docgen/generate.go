package docgen

import (
	"context"
	"unicode/utf8"

	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

// MaxNoteLength bounds the technical note accepted for generation.
// Oversized input is rejected up front, never silently truncated.
const MaxNoteLength = 50000

// maxAttempts bounds total generation attempts per request. Fixed, not
// caller-configurable: exactly one corrective retry, so latency and cost
// stay predictable.
const maxAttempts = 2

// Invoker is the boundary to the external text-generation backend. An
// implementation returns either a structurally complete document or a typed
// *GenerationError with one of the upstream failure kinds.
type Invoker interface {
	GenerateDocument(ctx context.Context, system, user string) (PatientDocument, error)
}

// Result is the terminal success outcome of one generation request.
type Result struct {
	Document   PatientDocument  `json:"document"`
	Profile    PatientProfile   `json:"profile"`
	Validation ValidationResult `json:"validation"`
	Attempts   int              `json:"attempts"`
}

// Generator runs the compose-invoke-validate loop with its single bounded
// retry. It holds no per-request state; one instance serves concurrent
// requests.
type Generator struct {
	log     *logger.Logger
	invoker Invoker
	rules   *ClinicalRules
}

func NewGenerator(log *logger.Logger, invoker Invoker, rules *ClinicalRules) *Generator {
	return &Generator{
		log:     log.With("service", "Generator"),
		invoker: invoker,
		rules:   rules,
	}
}

// Generate runs up to two attempts of (compose, invoke, validate) for one
// request. Validation failure on attempt one feeds the error list verbatim
// into attempt two's prompt; a second validation failure is terminal.
// Upstream failures pass through immediately on any attempt: they are
// infrastructure problems a different prompt cannot fix.
func (g *Generator) Generate(ctx context.Context, raw RawProfile, technicalNote string) (*Result, error) {
	if utf8.RuneCountInString(technicalNote) > MaxNoteLength {
		return nil, &GenerationError{
			Kind:    FailureNoteTooLong,
			Message: "technical note exceeds maximum length",
		}
	}
	if isBlank(technicalNote) {
		return nil, invalidInput("technical note is required")
	}

	profile := NormalizeProfile(raw)

	var retry *RetryContext
	var last ValidationResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// A caller that abandoned the request must not trigger the retry.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := ComposePrompt(profile, technicalNote, retry, g.rules)
		doc, err := g.invoker.GenerateDocument(ctx, prompt.System, prompt.User)
		if err != nil {
			return nil, err
		}

		result := Validate(doc, profile.Language, g.rules)
		if result.Passed {
			return &Result{
				Document:   doc,
				Profile:    profile,
				Validation: result,
				Attempts:   attempt,
			}, nil
		}

		g.log.Warn("generated document failed validation",
			"attempt", attempt,
			"language", profile.Language,
			"error_count", len(result.Errors),
			"warning_count", len(result.Warnings),
		)
		last = result
		retry = &RetryContext{Errors: result.Errors}
	}

	return nil, &GenerationError{
		Kind:               FailureValidationExhausted,
		Message:            "document failed validation after retry",
		ValidationErrors:   last.Errors,
		ValidationWarnings: last.Warnings,
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
