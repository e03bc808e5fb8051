// Package jobs tracks asynchronous transcription jobs through their
// lifecycle and runs them on a fixed-size worker pool. The registry is the
// single source of truth for job state; records live for the process
// lifetime only and are dropped when an owner's identity is retired.
package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/filety/scribe/identity"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a snapshot of a transcription job. Callers receive copies; the
// registry owns the live records.
type Job struct {
	ID               uuid.UUID
	Owner            identity.Owner
	Status           Status
	Text             string
	FailureReason    string
	EstimatedSeconds int64
	CreatedAt        time.Time
}
