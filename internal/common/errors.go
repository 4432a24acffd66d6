package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")

	// ErrExtractionUnavailable: the raw-text OCR service is down or not
	// configured. Recoverable; the pipeline degrades to draft-only values.
	ErrExtractionUnavailable = errors.New("text extraction unavailable")

	// ErrStructuringFailure: the vision model call failed or returned content
	// that does not decode to a draft. Fatal to the attempt.
	ErrStructuringFailure = errors.New("draft structuring failed")

	// ErrQualityCheck: one or more draft invariants violated. Fatal; the
	// caller must not persist any part of the rejected draft.
	ErrQualityCheck = errors.New("quality check failed")

	// ErrCorrectionPersist: writing a correction record failed. Soft; logged
	// and absorbed inside the categorization path.
	ErrCorrectionPersist = errors.New("correction persist failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
