package jobs

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/identity"
	"github.com/filety/scribe/logger"
)

// Registry is an in-memory job store. All mutation happens under a single
// mutex so a poll never observes a half-written record.
type Registry struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
	now  func() time.Time
	log  *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		jobs: make(map[uuid.UUID]*Job),
		now:  time.Now,
		log:  log.WithComponent("jobs"),
	}
}

// SetClock overrides the registry clock. Test hook.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Create registers a new pending job and returns its snapshot.
func (r *Registry) Create(owner identity.Owner, estimatedSeconds int64) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := &Job{
		ID:               uuid.New(),
		Owner:            owner,
		Status:           StatusPending,
		EstimatedSeconds: estimatedSeconds,
		CreatedAt:        r.now(),
	}
	r.jobs[job.ID] = job

	r.log.Debug("job created", logger.Fields(
		logger.FieldJobID, job.ID.String(),
		logger.FieldIdentity, owner.Key(),
		"estimated_seconds", estimatedSeconds,
	))
	return *job
}

// Begin moves a pending job to in_progress. Calling it on a terminal or
// unknown job is a no-op: a worker may start after the sweeper already
// dropped the record.
func (r *Registry) Begin(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = StatusInProgress
}

// Complete moves a non-terminal job to completed and stores the transcript.
// It returns the final snapshot so the caller can charge the owner's quota.
func (r *Registry) Complete(id uuid.UUID, text string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, apperrors.NotFound("job", id.String())
	}
	if job.Status.Terminal() {
		return *job, apperrors.InvalidInput("status", "job already "+string(job.Status))
	}
	job.Status = StatusCompleted
	job.Text = text
	return *job, nil
}

// Fail moves a non-terminal job to failed with the given reason. Failing an
// already terminal job is a no-op.
func (r *Registry) Fail(id uuid.UUID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = StatusFailed
	job.FailureReason = reason
}

// Get returns a snapshot of the job or NotFound.
func (r *Registry) Get(id uuid.UUID) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, apperrors.NotFound("job", id.String())
	}
	return *job, nil
}

// Delete drops a job record. Used when a created job was never handed to a
// worker, so no caller holds its id.
func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// ByOwner returns the owner's jobs, newest first.
func (r *Registry) ByOwner(owner identity.Owner) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := owner.Key()
	var out []Job
	for _, job := range r.jobs {
		if job.Owner.Key() == key {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// DeleteByOwner drops every job belonging to the owner and returns how many
// were removed. Used by the retention sweeper when an identity is retired.
func (r *Registry) DeleteByOwner(owner identity.Owner) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := owner.Key()
	removed := 0
	for id, job := range r.jobs {
		if job.Owner.Key() == key {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live job records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
