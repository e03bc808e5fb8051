package quota

import (
	"context"

	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/identity"
	"github.com/filety/scribe/logger"
)

// Ledger gates job admission on the owner's remaining daily budget and
// charges consumed time once a job completes.
//
// Two concurrent admissions racing against the same remaining budget can
// both be accepted: the ledger does not reserve budget at admission time.
// Known looseness; charging happens only on completion so failed jobs stay
// free.
type Ledger struct {
	store     identity.Store
	anonLimit Limit
	log       *logger.Logger
}

// NewLedger creates a Ledger. anonDailySeconds is the fixed ceiling applied
// to anonymous identities.
func NewLedger(store identity.Store, anonDailySeconds int64, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{
		store:     store,
		anonLimit: LimitOf(anonDailySeconds),
		log:       log.WithComponent("quota"),
	}
}

// LimitFor returns the ceiling that applies to an identity record.
func (l *Ledger) LimitFor(rec *identity.Record) Limit {
	if rec.Anonymous {
		return l.anonLimit
	}
	return ForTier(rec.Tier)
}

// Admit decides whether a job with the given estimated duration may be
// scheduled. A job that would only partially exceed the remaining budget is
// rejected outright rather than truncated.
func (l *Ledger) Admit(ctx context.Context, owner identity.Owner, estimatedSeconds int64) error {
	if estimatedSeconds < 0 {
		return apperrors.InvalidInput("estimated_seconds", "must be non-negative")
	}

	rec, err := l.store.Lookup(ctx, owner)
	if err != nil {
		return err
	}

	limit := l.LimitFor(rec)
	if limit.Unlimited {
		return nil
	}

	used := rec.UsedSeconds
	if used >= limit.Seconds || estimatedSeconds > limit.Seconds-used {
		l.log.Info("admission rejected", logger.Fields(
			logger.FieldIdentity, owner.Key(),
			"used_seconds", used,
			"limit_seconds", limit.Seconds,
			"estimated_seconds", estimatedSeconds,
		))
		return apperrors.QuotaExceeded(used, limit.Seconds)
	}
	return nil
}

// Charge adds consumed time to the owner's counter. Called exactly once per
// job, from the completed transition only.
func (l *Ledger) Charge(ctx context.Context, owner identity.Owner, seconds int64) error {
	if seconds <= 0 {
		return nil
	}
	return l.store.AddUsage(ctx, owner, seconds)
}
