package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_PipelineCodes(t *testing.T) {
	cases := []struct {
		err    *AppError
		code   ErrorCode
		status int
	}{
		{IngestFailed(fmt.Errorf("read reset")), ErrCodeIngestFailed, http.StatusBadRequest},
		{StorageFailed(fmt.Errorf("disk full")), ErrCodeStorageFailed, http.StatusInternalServerError},
		{DurationUnavailable(fmt.Errorf("probe exit 1")), ErrCodeDurationUnavailable, http.StatusUnprocessableEntity},
		{QuotaExceeded(500, 540), ErrCodeQuotaExceeded, http.StatusTooManyRequests},
		{ExtractionFailed("ffmpeg exit 1", nil), ErrCodeExtractionFailed, http.StatusUnprocessableEntity},
		{TranscriptionFailed("model crash", nil), ErrCodeTranscriptionFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
		}
		if tc.err.HTTPStatus != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.code, tc.status, tc.err.HTTPStatus)
		}
		if tc.err.Retryable {
			t.Errorf("%s: pipeline failures are never retryable", tc.code)
		}
	}
}

func TestAppError_QuotaExceeded_Details(t *testing.T) {
	err := QuotaExceeded(700, 540)
	if err.Details["used_seconds"] != int64(700) {
		t.Errorf("expected used_seconds 700, got %v", err.Details["used_seconds"])
	}
	if err.Details["limit_seconds"] != int64(540) {
		t.Errorf("expected limit_seconds 540, got %v", err.Details["limit_seconds"])
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := StorageFailed(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := ExtractionFailed("bad container", nil).WithDetail("path", "/tmp/in.mp4")
	if err.Details["path"] != "/tmp/in.mp4" {
		t.Errorf("expected path detail, got %v", err.Details["path"])
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("job", "abc")
	wrapped := fmt.Errorf("handler: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed on wrapped error")
	}
	if got.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", got.Code)
	}

	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected AsAppError to fail on plain error")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(QuotaExceeded(0, 540)); got != ErrCodeQuotaExceeded {
		t.Errorf("expected QUOTA_EXCEEDED, got %s", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR for plain error, got %s", got)
	}
}

func TestToResponse(t *testing.T) {
	resp := QuotaExceeded(540, 540).ToResponse()
	if resp.Error.Code != ErrCodeQuotaExceeded {
		t.Errorf("expected QUOTA_EXCEEDED, got %s", resp.Error.Code)
	}
	if resp.Error.Message == "" {
		t.Error("expected non-empty message")
	}
}
