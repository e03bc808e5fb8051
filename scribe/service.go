// Package scribe orchestrates the transcription pipeline: ingest the upload,
// probe its duration, admit it against the owner's quota, and hand it to the
// worker pool. Submission is synchronous up to admission; everything after
// runs in the background and the caller polls the job for the result.
package scribe

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/filety/scribe/cleanup"
	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/ffmpeg"
	"github.com/filety/scribe/identity"
	"github.com/filety/scribe/jobs"
	"github.com/filety/scribe/logger"
	"github.com/filety/scribe/media"
	"github.com/filety/scribe/quota"
	"github.com/filety/scribe/transcription"
)

// Upload is one incoming media submission.
type Upload struct {
	Body        io.Reader
	ContentType string
	Filename    string
	Owner       identity.Owner
}

// Service wires the pipeline stages together.
type Service struct {
	receiver *media.Receiver
	extract  *ffmpeg.Extractor
	probe    *ffmpeg.Prober
	provider transcription.Provider
	ledger   *quota.Ledger
	registry *jobs.Registry
	pool     *jobs.Pool
	cleanup  *cleanup.Coordinator
	log      *logger.Logger
}

// Deps carries the service's collaborators.
type Deps struct {
	Receiver *media.Receiver
	Extract  *ffmpeg.Extractor
	Probe    *ffmpeg.Prober
	Provider transcription.Provider
	Ledger   *quota.Ledger
	Registry *jobs.Registry
	Pool     *jobs.Pool
	Cleanup  *cleanup.Coordinator
	Log      *logger.Logger
}

// NewService creates a Service from its dependencies.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		receiver: d.Receiver,
		extract:  d.Extract,
		probe:    d.Probe,
		provider: d.Provider,
		ledger:   d.Ledger,
		registry: d.Registry,
		pool:     d.Pool,
		cleanup:  d.Cleanup,
		log:      log.WithComponent("scribe"),
	}
}

// Submit ingests an upload and schedules its transcription. It returns the
// new job's id once the upload passed admission; any failure before that
// point releases the upload's artifacts and creates no job.
func (s *Service) Submit(ctx context.Context, up Upload) (uuid.UUID, error) {
	scope := s.cleanup.Scope("submit")

	src, err := s.receiver.Receive(ctx, up.Body, up.ContentType, up.Filename, scope)
	if err != nil {
		scope.Release()
		return uuid.Nil, err
	}

	seconds, err := s.probe.Duration(ctx, src)
	if err != nil {
		scope.Release()
		return uuid.Nil, err
	}
	estimated := int64(math.Ceil(seconds))

	if err := s.ledger.Admit(ctx, up.Owner, estimated); err != nil {
		scope.Release()
		return uuid.Nil, err
	}

	job := s.registry.Create(up.Owner, estimated)

	err = s.pool.Submit(func(runCtx context.Context) {
		s.run(runCtx, job.ID, up.Owner, src, estimated, scope)
	})
	if err != nil {
		// never enqueued: the caller gets the rejection synchronously and no
		// id, so drop the record instead of leaving an unpollable failure
		scope.Release()
		s.registry.Delete(job.ID)
		return uuid.Nil, err
	}

	s.log.Info("job submitted", logger.Fields(
		logger.FieldJobID, job.ID.String(),
		logger.FieldIdentity, up.Owner.Key(),
		"filename", up.Filename,
		"source", string(src.Kind()),
		"estimated_seconds", estimated,
	))
	return job.ID, nil
}

// run executes one job to a terminal state. It never retries and never
// cancels mid-flight; the scope release in the defer covers every exit.
func (s *Service) run(ctx context.Context, jobID uuid.UUID, owner identity.Owner, src *media.Source, estimated int64, scope *cleanup.Scope) {
	defer scope.Release()
	defer func() {
		// a panicking stage must still leave the job terminal
		if rec := recover(); rec != nil {
			s.registry.Fail(jobID, fmt.Sprintf("internal error: %v", rec))
			s.log.Error("job panicked", logger.Fields(
				logger.FieldJobID, jobID.String(),
				"panic", fmt.Sprint(rec),
			))
		}
	}()

	s.registry.Begin(jobID)
	log := s.log.WithFields(logger.Fields(logger.FieldJobID, jobID.String()))

	audio := src
	if media.IsVideo(src.ContentType, src.Filename) {
		extracted, err := s.extract.Extract(ctx, src, scope)
		if err != nil {
			s.fail(jobID, err, log)
			return
		}
		audio = extracted
	}

	reader, err := audio.Open()
	if err != nil {
		s.fail(jobID, apperrors.StorageFailed(err), log)
		return
	}
	defer reader.Close()

	resp, err := s.provider.Transcribe(ctx, transcription.Request{
		Audio:    reader,
		Filename: audio.Filename,
	})
	if err != nil {
		s.fail(jobID, apperrors.TranscriptionFailed("provider call failed", err), log)
		return
	}

	text := transcription.Transcript(resp)
	final, err := s.registry.Complete(jobID, text)
	if err != nil {
		log.Warn("completion rejected", logger.ErrorFields("complete", err))
		return
	}

	if err := s.ledger.Charge(ctx, owner, estimated); err != nil {
		log.Error("quota charge failed", logger.ErrorFields("charge", err))
	}

	log.Info("job completed", logger.Fields(
		logger.FieldStatus, string(final.Status),
		"transcript_chars", len(text),
		"charged_seconds", estimated,
	))
}

func (s *Service) fail(jobID uuid.UUID, err error, log *logger.Logger) {
	s.registry.Fail(jobID, err.Error())
	log.Warn("job failed", logger.ErrorFields("run", err))
}

// Status returns a snapshot of the job.
func (s *Service) Status(jobID uuid.UUID) (jobs.Job, error) {
	return s.registry.Get(jobID)
}

// Recent returns the owner's jobs, newest first.
func (s *Service) Recent(owner identity.Owner) []jobs.Job {
	return s.registry.ByOwner(owner)
}
