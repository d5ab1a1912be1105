// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Inference errors.
	ErrModelUnavailable     = errors.New("local model unavailable")
	ErrClassificationFailed = errors.New("classification failed")
	ErrInvalidImage         = errors.New("invalid image")
	ErrNetwork              = errors.New("network error")
	ErrParse                = errors.New("unparsable model response")

	// Recognition errors.
	ErrNoUsablePath = errors.New("no usable recognition path")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RecognitionFailedMessage is what users see when a photo cannot be recognized.
const RecognitionFailedMessage = "We couldn't recognize this photo. Retake it or enter the food manually."

// RecognitionErrorKind classifies a fatal recognition failure.
type RecognitionErrorKind string

// Recognition error kinds.
const (
	KindNoUsablePath RecognitionErrorKind = "no_usable_path"
	KindInvalidInput RecognitionErrorKind = "invalid_input"
)

// RecognitionError is returned when no recognizer produced a usable result.
// LocalErr and RemoteErr keep the adapter failures that led here.
type RecognitionError struct {
	LocalErr  error
	RemoteErr error
	Kind      RecognitionErrorKind
}

func (e *RecognitionError) Error() string {
	var b strings.Builder
	b.WriteString("recognition failed")
	if e.Kind != "" {
		b.WriteString(" (" + string(e.Kind) + ")")
	}
	if e.LocalErr != nil {
		b.WriteString(": local: " + e.LocalErr.Error())
	}
	if e.RemoteErr != nil {
		b.WriteString("; remote: " + e.RemoteErr.Error())
	}
	return b.String()
}

// Unwrap exposes the kind sentinel and both adapter causes to errors.Is/As.
func (e *RecognitionError) Unwrap() []error {
	errs := make([]error, 0, 3)
	switch e.Kind {
	case KindNoUsablePath:
		errs = append(errs, ErrNoUsablePath)
	case KindInvalidInput:
		errs = append(errs, ErrInvalidImage)
	}
	if e.LocalErr != nil {
		errs = append(errs, e.LocalErr)
	}
	if e.RemoteErr != nil {
		errs = append(errs, e.RemoteErr)
	}
	return errs
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage returns the message meant for people rather than logs.
// Recognition failures get the retry/manual-entry hint; anything else falls
// back to a generic message.
func UserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	if errors.Is(err, ErrNoUsablePath) || errors.Is(err, ErrInvalidImage) {
		return RecognitionFailedMessage
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Recognition was interrupted. Please try again."
	}
	return "Something went wrong. Please try again."
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	// Check for specific retryable errors
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Check for retryable error type
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
