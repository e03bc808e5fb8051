package quota_test

import (
	"context"
	"testing"

	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/identity"
	"github.com/filety/scribe/quota"
)

func anonOwner(t *testing.T, store *identity.MemoryStore) identity.Owner {
	t.Helper()
	anon, err := store.FindOrCreateAnonymous(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return identity.AnonymousOwner(anon.ID)
}

func TestAdmitWithinBudget(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	ledger := quota.NewLedger(store, 600, nil)
	owner := anonOwner(t, store)

	if err := ledger.Admit(ctx, owner, 500); err != nil {
		t.Fatalf("expected admission, got %v", err)
	}
	// admission does not reserve budget
	if err := ledger.Admit(ctx, owner, 600); err != nil {
		t.Fatalf("expected second admission (no reservation), got %v", err)
	}
}

func TestAdmitRejectsOverBudget(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	ledger := quota.NewLedger(store, 600, nil)
	owner := anonOwner(t, store)

	// media probed at 700s against a 600s ceiling
	err := ledger.Admit(ctx, owner, 700)
	if apperrors.CodeOf(err) != apperrors.ErrCodeQuotaExceeded {
		t.Fatalf("expected QUOTA_EXCEEDED, got %v", err)
	}
}

func TestAdmitRejectsPartialOverrun(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	ledger := quota.NewLedger(store, 600, nil)
	owner := anonOwner(t, store)

	if err := store.AddUsage(ctx, owner, 500); err != nil {
		t.Fatal(err)
	}

	// 200s would fit only partially into the remaining 100s: rejected, not truncated
	err := ledger.Admit(ctx, owner, 200)
	if apperrors.CodeOf(err) != apperrors.ErrCodeQuotaExceeded {
		t.Fatalf("expected QUOTA_EXCEEDED, got %v", err)
	}

	// exactly the remaining budget is admitted
	if err := ledger.Admit(ctx, owner, 100); err != nil {
		t.Fatalf("expected admission at exact remainder, got %v", err)
	}
}

func TestAdmitRejectsWhenExhausted(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	ledger := quota.NewLedger(store, 600, nil)
	owner := anonOwner(t, store)

	if err := store.AddUsage(ctx, owner, 600); err != nil {
		t.Fatal(err)
	}

	// even a zero-length job is rejected once used >= limit
	err := ledger.Admit(ctx, owner, 0)
	if apperrors.CodeOf(err) != apperrors.ErrCodeQuotaExceeded {
		t.Fatalf("expected QUOTA_EXCEEDED, got %v", err)
	}
}

func TestAdmitUnlimitedTier(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	store.PutUser(identity.User{ID: 1, Tier: identity.TierPremium, UsedSeconds: 1 << 40})
	ledger := quota.NewLedger(store, 600, nil)

	if err := ledger.Admit(ctx, identity.UserOwner(1), 1<<40); err != nil {
		t.Fatalf("premium tier must always admit, got %v", err)
	}
}

func TestAdmitRegisteredTiers(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	store.PutUser(identity.User{ID: 1, Tier: identity.TierFree})
	store.PutUser(identity.User{ID: 2, Tier: identity.TierPro})
	ledger := quota.NewLedger(store, 600, nil)

	if err := ledger.Admit(ctx, identity.UserOwner(1), quota.DailyFreeSeconds+1); apperrors.CodeOf(err) != apperrors.ErrCodeQuotaExceeded {
		t.Errorf("expected free tier rejection, got %v", err)
	}
	if err := ledger.Admit(ctx, identity.UserOwner(2), quota.DailyFreeSeconds+1); err != nil {
		t.Errorf("pro tier should admit %ds, got %v", quota.DailyFreeSeconds+1, err)
	}
}

func TestAdmitNegativeEstimate(t *testing.T) {
	store := identity.NewMemoryStore()
	ledger := quota.NewLedger(store, 600, nil)
	owner := anonOwner(t, store)

	err := ledger.Admit(context.Background(), owner, -1)
	if apperrors.CodeOf(err) != apperrors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestChargeIncrementsUsage(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryStore()
	ledger := quota.NewLedger(store, 600, nil)
	owner := anonOwner(t, store)

	if err := ledger.Charge(ctx, owner, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, _ := store.Lookup(ctx, owner)
	if rec.UsedSeconds != 300 {
		t.Errorf("expected 300s charged, got %d", rec.UsedSeconds)
	}

	// non-positive charges are ignored
	if err := ledger.Charge(ctx, owner, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, _ = store.Lookup(ctx, owner)
	if rec.UsedSeconds != 300 {
		t.Errorf("expected usage unchanged, got %d", rec.UsedSeconds)
	}
}

func TestForTier(t *testing.T) {
	cases := []struct {
		tier      identity.Tier
		seconds   int64
		unlimited bool
	}{
		{identity.TierFree, quota.DailyFreeSeconds, false},
		{identity.TierPlus, quota.DailyPlusSeconds, false},
		{identity.TierPro, quota.DailyProSeconds, false},
		{identity.TierPremium, 0, true},
		{identity.Tier(99), quota.DailyFreeSeconds, false},
	}
	for _, tc := range cases {
		limit := quota.ForTier(tc.tier)
		if limit.Unlimited != tc.unlimited {
			t.Errorf("tier %v: unlimited = %v, want %v", tc.tier, limit.Unlimited, tc.unlimited)
		}
		if !tc.unlimited && limit.Seconds != tc.seconds {
			t.Errorf("tier %v: seconds = %d, want %d", tc.tier, limit.Seconds, tc.seconds)
		}
	}
}

func TestLimitRemaining(t *testing.T) {
	l := quota.LimitOf(600)
	if got := l.Remaining(0); got != 600 {
		t.Errorf("expected 600 remaining, got %d", got)
	}
	if got := l.Remaining(700); got != 0 {
		t.Errorf("expected 0 remaining when overdrawn, got %d", got)
	}
	if got := quota.NoLimit().Remaining(0); got >= 0 {
		t.Errorf("unlimited remainder should be negative sentinel, got %d", got)
	}
}
