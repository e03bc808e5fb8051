// Package transcription defines the speech-to-text boundary of the pipeline.
// The engine behind the Provider interface is an opaque, shared resource;
// each Transcribe call is stateless from the pipeline's perspective and is
// never retried.
package transcription

import (
	"context"
	"strings"
)

// Provider is the interface that speech-to-text backends implement.
type Provider interface {
	// Name identifies the backend.
	Name() string
	// IsAvailable reports whether the backend is reachable.
	IsAvailable(ctx context.Context) bool
	// Transcribe sends audio for transcription and returns the result.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// Transcript flattens a response into the job's transcript text: the segment
// texts concatenated in emitted order. Responses without segments fall back
// to the full text field.
func Transcript(resp *Response) string {
	if len(resp.Segments) == 0 {
		return strings.TrimSpace(resp.Text)
	}
	parts := make([]string, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		if s := strings.TrimSpace(seg.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
