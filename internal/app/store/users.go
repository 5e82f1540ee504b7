/*
Package store contains the persistence core of the service.

This file defines the User record and the UserStore, an in-memory map of
visitor identities backed by the users.json resource. Every mutating
operation persists the full store synchronously before returning.
*/
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marsgrid/internal/pkg/errs"
	"marsgrid/internal/pkg/logx"
)

// MinNicknameLen is the minimum accepted length of a trimmed nickname.
const MinNicknameLen = 2

// User represents an anonymous visitor identified by a cookie token.
type User struct {
	// ID is the stable cookie-derived identity token (a UUID string).
	ID string `json:"id"`

	// Nickname is the mutable display name.
	Nickname string `json:"nickname"`

	// Coupons is the virtual currency balance spent on room purchases.
	Coupons int `json:"coupons"`

	// CreatedAt is the creation time in Unix milliseconds, set once.
	CreatedAt int64 `json:"createdAt"`
}

// UserStore owns the id → User map. Once created a User is never deleted.
type UserStore struct {
	mu     sync.RWMutex
	users  map[string]*User
	res    *Resource
	logger zerolog.Logger
}

// NewUserStore loads the persisted users eagerly and returns the store.
// An unreadable or malformed resource degrades to an empty store; the
// process stays available with the failure logged.
func NewUserStore(res *Resource) *UserStore {
	s := &UserStore{
		users:  make(map[string]*User),
		res:    res,
		logger: logx.Logger().With().Str("component", "UserStore").Logger(),
	}

	var records []User
	if err := res.ReadAll(&records); err != nil {
		s.logger.Warn().Err(err).Msg("Starting with an empty user store.")
		return s
	}

	for i := range records {
		u := records[i]
		s.users[u.ID] = &u
	}

	s.logger.Info().Int("count", len(s.users)).Msg("User store loaded.")
	return s
}

// Get returns a copy of the user with the given id.
func (s *UserStore) Get(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// GetOrCreate returns the existing user for id, or inserts a new one with the
// given defaults and persists the store before returning. Two concurrent
// first contacts for the same id observe the same single record.
func (s *UserStore) GetOrCreate(id, defaultNickname string, defaultCoupons int) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		return *u
	}

	u := &User{
		ID:        id,
		Nickname:  defaultNickname,
		Coupons:   defaultCoupons,
		CreatedAt: time.Now().UnixMilli(),
	}
	s.users[id] = u
	s.persistLocked()

	s.logger.Info().Str("user_id", id).Msg("New visitor registered.")
	return *u
}

// Rename trims the nickname, rejects anything shorter than MinNicknameLen,
// and otherwise updates the user and persists.
func (s *UserStore) Rename(id, nickname string) (User, *errs.CustomError) {
	trimmed := strings.TrimSpace(nickname)
	if len([]rune(trimmed)) < MinNicknameLen {
		return User{}, errs.NewError(errs.ErrNicknameTooShort, MinNicknameLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, errs.NewError(errs.ErrUserNotFound)
	}

	u.Nickname = trimmed
	s.persistLocked()

	return *u, nil
}

// AddCoupons credits the user's balance. Non-positive amounts are rejected.
// The user is resolved inside the exclusive section, so concurrent grants
// cannot lose updates.
func (s *UserStore) AddCoupons(id string, amount int) (User, *errs.CustomError) {
	if amount <= 0 {
		return User{}, errs.NewError(errs.ErrInvalidCouponAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, errs.NewError(errs.ErrUserNotFound)
	}

	u.Coupons += amount
	s.persistLocked()

	return *u, nil
}

// ListAll returns a snapshot copy of all users, sorted by creation time and
// id, safe to iterate without holding the lock.
func (s *UserStore) ListAll() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// debit checks the balance and decrements it in one exclusive section. It is
// the purchase transaction's entry point into the user store; the balance is
// re-read here so a concurrent grant or debit cannot be lost.
func (s *UserStore) debit(id string, amount int) (User, *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, errs.NewError(errs.ErrUserNotFound)
	}

	if u.Coupons < amount {
		return User{}, errs.NewError(errs.ErrInsufficientCoupons)
	}

	u.Coupons -= amount
	s.persistLocked()

	return *u, nil
}

// persistLocked writes the full store to disk. It must be called with the
// write lock held. An empty store is persisted as an empty array; skipping
// the write would resurrect deleted state on the next boot.
func (s *UserStore) persistLocked() {
	records := make([]User, 0, len(s.users))
	for _, u := range s.users {
		records = append(records, *u)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	if err := s.res.WriteAll(records); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist users; in-memory state is ahead of disk.")
	}
}
