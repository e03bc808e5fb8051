package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Admission-time failures. These surface synchronously to the submitter and
// never create a job.
const (
	// ErrCodeIngestFailed indicates the upload stream could not be read.
	ErrCodeIngestFailed ErrorCode = "INGEST_FAILED"
	// ErrCodeStorageFailed indicates scratch storage could not be written.
	ErrCodeStorageFailed ErrorCode = "STORAGE_FAILED"
	// ErrCodeDurationUnavailable indicates the media duration probe failed.
	ErrCodeDurationUnavailable ErrorCode = "DURATION_UNAVAILABLE"
	// ErrCodeQuotaExceeded indicates the identity has no remaining budget for the job.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
)

// Post-admission failures. These move the job to its failed state and are
// discovered by polling.
const (
	// ErrCodeExtractionFailed indicates the external audio decode tool failed.
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	// ErrCodeTranscriptionFailed indicates the speech-recognition engine failed.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
)

// Resource and request errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeServiceBusy indicates the service rejected work under load.
	ErrCodeServiceBusy ErrorCode = "SERVICE_BUSY"
)

// Nothing in the pipeline is retried automatically: external-process and
// model failures are treated as deterministic for the lifetime of a job.
// A caller wanting retry must resubmit.
var retryableCodes = map[ErrorCode]bool{}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
