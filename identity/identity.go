// Package identity models the callers whose usage is tracked for quota:
// anonymous identities created on first contact, and registered users with a
// tariff tier. The durable store behind the interface is an external
// collaborator; an in-memory implementation ships for single-process use.
package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tier is a registered user's tariff plan. Values match the stored plan ids.
type Tier int

const (
	TierFree Tier = iota
	TierPlus
	TierPro
	TierPremium
)

// Anonymous is a caller without credentials.
type Anonymous struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	UsedSeconds int64
}

// User is a registered caller. Its lifecycle is managed outside this core.
type User struct {
	ID          int64
	Tier        Tier
	CreatedAt   time.Time
	UsedSeconds int64
}

// Owner identifies who submitted a job: an anonymous identity or a registered
// user, never both.
type Owner struct {
	Anon *uuid.UUID
	User *int64
}

// AnonymousOwner builds an Owner for an anonymous identity.
func AnonymousOwner(id uuid.UUID) Owner {
	return Owner{Anon: &id}
}

// UserOwner builds an Owner for a registered user.
func UserOwner(id int64) Owner {
	return Owner{User: &id}
}

// IsZero reports whether no identity is set.
func (o Owner) IsZero() bool {
	return o.Anon == nil && o.User == nil
}

// Key returns a stable string form usable as a map key and log field.
func (o Owner) Key() string {
	switch {
	case o.Anon != nil:
		return "anon:" + o.Anon.String()
	case o.User != nil:
		return fmt.Sprintf("user:%d", *o.User)
	default:
		return ""
	}
}

// Record is a quota-relevant snapshot of an identity.
type Record struct {
	Owner       Owner
	Anonymous   bool
	Tier        Tier
	UsedSeconds int64
	CreatedAt   time.Time
}
