// Package errors provides unified error handling for the transcription
// pipeline. It implements structured error types with machine-readable codes
// and HTTP status mapping.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Pipeline Error Constructors ---

// IngestFailed creates a new AppError for an upload stream that could not be read.
func IngestFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeIngestFailed, Message: "Failed to read the uploaded media stream.",
		HTTPStatus: http.StatusBadRequest, Retryable: false, Cause: cause,
	}
}

// StorageFailed creates a new AppError for a scratch storage write failure.
func StorageFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorageFailed, Message: "Failed to persist the uploaded media to scratch storage.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// DurationUnavailable creates a new AppError for a failed media duration probe.
func DurationUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDurationUnavailable, Message: "Could not determine the media duration.",
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false, Cause: cause,
	}
}

// QuotaExceeded creates a new AppError for an identity that has exhausted its budget.
func QuotaExceeded(usedSeconds, limitSeconds int64) *AppError {
	return &AppError{
		Code: ErrCodeQuotaExceeded, Message: "Daily transcription limit reached.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: false,
		Details: map[string]any{"used_seconds": usedSeconds, "limit_seconds": limitSeconds},
	}
}

// ExtractionFailed creates a new AppError for a failed external audio decode.
func ExtractionFailed(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExtractionFailed, Message: fmt.Sprintf("Audio extraction failed: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false, Cause: cause,
	}
}

// TranscriptionFailed creates a new AppError for a failed speech-recognition call.
func TranscriptionFailed(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTranscriptionFailed, Message: fmt.Sprintf("Transcription failed: %s", reason),
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
