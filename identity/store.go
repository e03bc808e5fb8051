package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/filety/scribe/errors"
)

// Store is the durable record of identities and their consumed time.
// It is read at admission, written at job completion, and pruned by the
// retention sweeper.
type Store interface {
	// FindOrCreateAnonymous returns the anonymous identity with the given id,
	// creating a fresh one when id is nil or unknown.
	FindOrCreateAnonymous(ctx context.Context, id *uuid.UUID) (*Anonymous, error)
	// Lookup returns the quota snapshot for an owner.
	Lookup(ctx context.Context, owner Owner) (*Record, error)
	// AddUsage atomically increments the owner's consumed time.
	AddUsage(ctx context.Context, owner Owner, seconds int64) error
	// ExpiredAnonymous lists anonymous identities created before cutoff.
	ExpiredAnonymous(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	// DeleteAnonymous removes an anonymous identity.
	DeleteAnonymous(ctx context.Context, id uuid.UUID) error
}

// MemoryStore is a mutex-guarded in-memory Store. Suitable for the
// single-process deployment; a SQL-backed store replaces it in multi-instance
// setups.
type MemoryStore struct {
	mu    sync.Mutex
	anons map[uuid.UUID]*Anonymous
	users map[int64]*User
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		anons: make(map[uuid.UUID]*Anonymous),
		users: make(map[int64]*User),
		now:   time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *MemoryStore) SetClock(now func() time.Time) { s.now = now }

// FindOrCreateAnonymous implements Store.
func (s *MemoryStore) FindOrCreateAnonymous(_ context.Context, id *uuid.UUID) (*Anonymous, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != nil {
		if anon, ok := s.anons[*id]; ok {
			snapshot := *anon
			return &snapshot, nil
		}
	}

	anon := &Anonymous{
		ID:        uuid.New(),
		CreatedAt: s.now(),
	}
	s.anons[anon.ID] = anon
	snapshot := *anon
	return &snapshot, nil
}

// PutUser stores a registered user record.
func (s *MemoryStore) PutUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = &u
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(_ context.Context, owner Owner) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case owner.Anon != nil:
		anon, ok := s.anons[*owner.Anon]
		if !ok {
			return nil, apperrors.NotFound("identity", owner.Key())
		}
		return &Record{
			Owner:       owner,
			Anonymous:   true,
			UsedSeconds: anon.UsedSeconds,
			CreatedAt:   anon.CreatedAt,
		}, nil
	case owner.User != nil:
		user, ok := s.users[*owner.User]
		if !ok {
			return nil, apperrors.NotFound("identity", owner.Key())
		}
		return &Record{
			Owner:       owner,
			Tier:        user.Tier,
			UsedSeconds: user.UsedSeconds,
			CreatedAt:   user.CreatedAt,
		}, nil
	default:
		return nil, apperrors.InvalidInput("owner", "no identity set")
	}
}

// AddUsage implements Store. The increment happens under the store lock so
// concurrent completions for the same identity never lose updates.
func (s *MemoryStore) AddUsage(_ context.Context, owner Owner, seconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case owner.Anon != nil:
		anon, ok := s.anons[*owner.Anon]
		if !ok {
			return apperrors.NotFound("identity", owner.Key())
		}
		anon.UsedSeconds += seconds
	case owner.User != nil:
		user, ok := s.users[*owner.User]
		if !ok {
			return apperrors.NotFound("identity", owner.Key())
		}
		user.UsedSeconds += seconds
	default:
		return apperrors.InvalidInput("owner", "no identity set")
	}
	return nil
}

// ExpiredAnonymous implements Store.
func (s *MemoryStore) ExpiredAnonymous(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []uuid.UUID
	for id, anon := range s.anons {
		if anon.CreatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	return expired, nil
}

// DeleteAnonymous implements Store.
func (s *MemoryStore) DeleteAnonymous(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.anons, id)
	return nil
}

// compile-time check
var _ Store = (*MemoryStore)(nil)
