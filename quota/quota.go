// Package quota implements admission control against per-identity daily
// usage ceilings. Admission checks the remaining budget up front; the
// consumed counter is charged only when a job completes, so failed jobs
// never consume quota.
package quota

import (
	"github.com/filety/scribe/identity"
)

// Default daily ceilings in seconds of media duration.
const (
	DailyAnonSeconds = 540
	DailyFreeSeconds = 720
	DailyPlusSeconds = 3600
	DailyProSeconds  = 6000
)

// Limit is a quota ceiling. The premium tier has no ceiling at all, which is
// distinct from a zero ceiling.
type Limit struct {
	Seconds   int64
	Unlimited bool
}

// LimitOf builds a finite limit.
func LimitOf(seconds int64) Limit {
	return Limit{Seconds: seconds}
}

// NoLimit builds an unbounded limit.
func NoLimit() Limit {
	return Limit{Unlimited: true}
}

// Remaining returns the budget left under this limit. Unlimited limits have
// no meaningful remainder and report a negative value; check Unlimited first.
func (l Limit) Remaining(used int64) int64 {
	if l.Unlimited {
		return -1
	}
	if used >= l.Seconds {
		return 0
	}
	return l.Seconds - used
}

// ForTier maps a tariff tier to its daily ceiling. Unknown tiers fall back
// to the free plan.
func ForTier(t identity.Tier) Limit {
	switch t {
	case identity.TierFree:
		return LimitOf(DailyFreeSeconds)
	case identity.TierPlus:
		return LimitOf(DailyPlusSeconds)
	case identity.TierPro:
		return LimitOf(DailyProSeconds)
	case identity.TierPremium:
		return NoLimit()
	default:
		return LimitOf(DailyFreeSeconds)
	}
}
