package apperrors

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrNoCandidates          = errors.New("no matching datasets found")
	ErrGenerationUnparseable = errors.New("could not extract SQL from response")
	ErrGuardrailViolation    = errors.New("guardrail violation")
	ErrExecutionFailure      = errors.New("query execution failed")
)
