package transcription

import "io"

// Request holds parameters for a transcription call.
type Request struct {
	// Audio is the audio payload. Providers read it exactly once; callers
	// rewind seekable sources before the call.
	Audio io.Reader
	// Filename is the upload name forwarded to the backend.
	Filename string
	// Language is the expected language of the audio (e.g. "en").
	Language string
	// Model is the transcription model to use.
	Model string
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Segments contains time-aligned transcript segments.
	Segments []Segment `json:"segments,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Segment represents a time-aligned portion of a transcript.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
}
