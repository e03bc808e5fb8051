// Package retention expires anonymous identities that have outlived their
// TTL, cascading the deletion to their job records. Registered users are
// never swept.
package retention

import (
	"context"
	"time"

	"github.com/filety/scribe/identity"
	"github.com/filety/scribe/jobs"
	"github.com/filety/scribe/logger"
)

// Sweeper periodically deletes expired anonymous identities and their jobs.
type Sweeper struct {
	store    identity.Store
	registry *jobs.Registry
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger
}

// NewSweeper creates a Sweeper. ttl is how long an anonymous identity lives
// after creation; interval is how often the sweep runs.
func NewSweeper(store identity.Store, registry *jobs.Registry, ttl, interval time.Duration, log *logger.Logger) *Sweeper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Sweeper{
		store:    store,
		registry: registry,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		log:      log.WithComponent("retention"),
	}
}

// SetClock overrides the sweeper clock. Test hook.
func (s *Sweeper) SetClock(now func() time.Time) { s.now = now }

// Run sweeps on every tick until ctx ends. A failing sweep is logged and the
// loop continues; the next tick gets another chance.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("retention sweeper started", logger.Fields(
		"ttl", s.ttl.String(),
		"interval", s.interval.String(),
	))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Error("sweep failed", logger.ErrorFields("sweep", err))
			}
		}
	}
}

// Sweep deletes every anonymous identity created before now-ttl, dropping
// its jobs along the way.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := s.now().Add(-s.ttl)

	expired, err := s.store.ExpiredAnonymous(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	identities := 0
	removedJobs := 0
	for _, id := range expired {
		if err := s.store.DeleteAnonymous(ctx, id); err != nil {
			s.log.Warn("identity deletion failed", logger.Fields(
				logger.FieldIdentity, id.String(),
				logger.FieldError, err.Error(),
			))
			continue
		}
		identities++
		removedJobs += s.registry.DeleteByOwner(identity.AnonymousOwner(id))
	}

	s.log.Info("swept expired anonymous identities", logger.Fields(
		"identities", identities,
		"jobs", removedJobs,
	))
	return nil
}
