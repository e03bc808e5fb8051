package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/identity"
	"github.com/filety/scribe/jobs"
	"github.com/filety/scribe/logger"
	"github.com/filety/scribe/quota"
	"github.com/filety/scribe/scribe"
	"github.com/filety/scribe/transcription"
)

// Clients identify themselves with the uuid issued by POST /auth/anonymous.
const anonymousIDHeader = "X-Anonymous-Id"

// Handlers holds the HTTP handlers for the transcription API.
type Handlers struct {
	service  *scribe.Service
	store    identity.Store
	ledger   *quota.Ledger
	provider transcription.Provider
	name     string
	log      *logger.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(service *scribe.Service, store identity.Store, ledger *quota.Ledger, provider transcription.Provider, serviceName string, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{
		service:  service,
		store:    store,
		ledger:   ledger,
		provider: provider,
		name:     serviceName,
		log:      log.WithComponent("handlers"),
	}
}

// Register mounts the API routes on the engine.
func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/health", h.Health)
	engine.POST("/auth/anonymous", h.AnonymousAuth)
	engine.POST("/transcriptions", h.Submit)
	engine.GET("/transcriptions/recent", h.Recent)
	engine.GET("/transcriptions/:id", h.Status)
}

type anonymousResponse struct {
	UUID              string    `json:"uuid"`
	CreatedAt         time.Time `json:"created_at"`
	DailyLimitSeconds int64     `json:"daily_limit_seconds"`
	DailyUsedSeconds  int64     `json:"daily_used_seconds"`
}

// AnonymousAuth finds or creates an anonymous identity. A known uuid in the
// request header returns the existing identity; anything else issues a fresh
// one.
func (h *Handlers) AnonymousAuth(c *gin.Context) {
	id, err := headerUUID(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	anon, err := h.store.FindOrCreateAnonymous(c.Request.Context(), id)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	rec, err := h.store.Lookup(c.Request.Context(), identity.AnonymousOwner(anon.ID))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	limit := h.ledger.LimitFor(rec)

	RespondOK(c, anonymousResponse{
		UUID:              anon.ID.String(),
		CreatedAt:         anon.CreatedAt,
		DailyLimitSeconds: limit.Seconds,
		DailyUsedSeconds:  rec.UsedSeconds,
	})
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Owner  string `json:"owner"`
}

// Submit accepts a media upload and schedules its transcription. The result
// is fetched later via GET /transcriptions/:id.
func (h *Handlers) Submit(c *gin.Context) {
	owner, err := h.resolveOwner(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("file", "multipart field 'file' is required"))
		return
	}
	defer file.Close()

	jobID, err := h.service.Submit(c.Request.Context(), scribe.Upload{
		Body:        file,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
		Owner:       owner,
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}

	RespondAccepted(c, submitResponse{
		JobID:  jobID.String(),
		Status: string(jobs.StatusPending),
		Owner:  owner.Key(),
	})
}

type jobResponse struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	Text          string    `json:"text,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toJobResponse(j jobs.Job) jobResponse {
	return jobResponse{
		ID:            j.ID.String(),
		Status:        string(j.Status),
		Text:          j.Text,
		FailureReason: j.FailureReason,
		CreatedAt:     j.CreatedAt,
	}
}

// Status returns the current snapshot of a job.
func (h *Handlers) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("id", "must be a uuid"))
		return
	}

	job, err := h.service.Status(id)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, toJobResponse(job))
}

// Recent returns the caller's jobs, newest first.
func (h *Handlers) Recent(c *gin.Context) {
	id, err := headerUUID(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	if id == nil {
		RespondWithError(c, apperrors.InvalidInput(anonymousIDHeader, "header is required"))
		return
	}

	list := h.service.Recent(identity.AnonymousOwner(*id))
	out := make([]jobResponse, 0, len(list))
	for _, j := range list {
		out = append(out, toJobResponse(j))
	}
	RespondOK(c, out)
}

// Health reports liveness and whether the transcription backend is reachable.
func (h *Handlers) Health(c *gin.Context) {
	available := h.provider != nil && h.provider.IsAvailable(c.Request.Context())
	RespondOK(c, gin.H{
		"status":    "healthy",
		"service":   h.name,
		"provider":  available,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// resolveOwner turns the anonymous-id header into an owner, creating a fresh
// identity when the header is absent or unknown.
func (h *Handlers) resolveOwner(c *gin.Context) (identity.Owner, error) {
	id, err := headerUUID(c)
	if err != nil {
		return identity.Owner{}, err
	}
	anon, err := h.store.FindOrCreateAnonymous(c.Request.Context(), id)
	if err != nil {
		return identity.Owner{}, err
	}
	return identity.AnonymousOwner(anon.ID), nil
}

// headerUUID parses the anonymous-id header. Absent is not an error; garbage is.
func headerUUID(c *gin.Context) (*uuid.UUID, error) {
	raw := c.GetHeader(anonymousIDHeader)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(anonymousIDHeader, "must be a uuid")
	}
	return &id, nil
}
