/*
Package store contains the persistence core of the service.

This file defines the Room record, the RoomStore backed by the rooms.json
resource, and the purchase transaction. The purchase is the only code path
allowed to mutate both the room map and the user map in one logical
operation; lock acquisition is always rooms before users.
*/
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"marsgrid/internal/pkg/errs"
	"marsgrid/internal/pkg/logx"
)

// UnknownOwnerNickname is the display fallback when a room references a user
// id the user store no longer resolves. Dangling references should not occur,
// but rendering must degrade gracefully when they do.
const UnknownOwnerNickname = "unknown user"

// Room is a purchasable slot on the hex grid.
type Room struct {
	// ID is the stable room identifier.
	ID string `json:"id"`

	// Q and R are axial hex-grid coordinates, fixed at creation and
	// consumed only by the grid renderer.
	Q int `json:"q"`
	R int `json:"r"`

	// Size is a categorical tier ("small", "medium", "large") affecting
	// price and imagery.
	Size string `json:"size"`

	// Desc is the free-text, searchable description.
	Desc string `json:"desc"`

	// Price is the coupon cost, fixed at creation.
	Price int `json:"price"`

	// OwnerID references a User.ID; empty means unowned. Once set it
	// never changes.
	OwnerID string `json:"ownerId,omitempty"`

	// OwnerNickname is a derived display field recomputed from OwnerID on
	// every read. It is never persisted.
	OwnerNickname string `json:"ownerNickname,omitempty"`
}

// roomRecord is the persisted shape of a Room: everything except the derived
// OwnerNickname.
type roomRecord struct {
	ID      string `json:"id"`
	Q       int    `json:"q"`
	R       int    `json:"r"`
	Size    string `json:"size"`
	Desc    string `json:"desc"`
	Price   int    `json:"price"`
	OwnerID string `json:"ownerId,omitempty"`
}

// RoomStore owns the id → Room map. The room set is seeded once and only the
// ownership fields mutate afterwards, via Purchase.
type RoomStore struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	res    *Resource
	users  *UserStore
	logger zerolog.Logger
}

// NewRoomStore loads the persisted rooms eagerly and returns the store.
// A cold boot sees the bundled seed dataset through the resource layer;
// unreadable or malformed data degrades to an empty grid with the failure
// logged.
func NewRoomStore(res *Resource, users *UserStore) *RoomStore {
	s := &RoomStore{
		rooms:  make(map[string]*Room),
		res:    res,
		users:  users,
		logger: logx.Logger().With().Str("component", "RoomStore").Logger(),
	}

	var records []roomRecord
	if err := res.ReadAll(&records); err != nil {
		s.logger.Warn().Err(err).Msg("Starting with an empty room grid.")
		return s
	}

	for _, rec := range records {
		s.rooms[rec.ID] = &Room{
			ID:      rec.ID,
			Q:       rec.Q,
			R:       rec.R,
			Size:    rec.Size,
			Desc:    rec.Desc,
			Price:   rec.Price,
			OwnerID: rec.OwnerID,
		}
	}

	s.logger.Info().Int("count", len(s.rooms)).Msg("Room grid loaded.")
	return s
}

// ListAll returns a snapshot copy of the full room map.
func (s *RoomStore) ListAll() map[string]Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

// ListAllWithOwners returns a snapshot with every room's OwnerNickname
// recomputed from the user store. Owned rooms whose owner cannot be resolved
// fall back to UnknownOwnerNickname.
func (s *RoomStore) ListAllWithOwners() map[string]Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snapshotLocked()
	for id, room := range out {
		room.OwnerNickname = s.ownerNickname(room.OwnerID)
		out[id] = room
	}
	return out
}

// FindByID returns a copy of the room with the given id, with its owner
// display name resolved.
func (s *RoomStore) FindByID(id string) (Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}

	out := *room
	out.OwnerNickname = s.ownerNickname(out.OwnerID)
	return out, true
}

// Search returns the rooms whose id, description, or size contains the query
// case-insensitively. A blank query returns the full set. Results carry
// resolved owner display names.
func (s *RoomStore) Search(query string) map[string]Room {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.ListAllWithOwners()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Room)
	for id, room := range s.rooms {
		if strings.Contains(strings.ToLower(id), q) ||
			strings.Contains(strings.ToLower(room.Desc), q) ||
			strings.Contains(strings.ToLower(room.Size), q) {
			match := *room
			match.OwnerNickname = s.ownerNickname(match.OwnerID)
			out[id] = match
		}
	}
	return out
}

// Purchase executes the room purchase transaction: resolve the room, resolve
// the buyer, verify the room is unowned, debit the buyer, record ownership,
// and persist both stores. The entire check-then-act sequence runs under the
// room store's exclusive lock, so two concurrent purchasers of the same room
// can never both succeed. On success the purchased room is returned.
func (s *RoomStore) Purchase(roomID, userID string) (Room, *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return Room{}, errs.NewError(errs.ErrRoomNotFound)
	}

	buyer, exists := s.users.Get(userID)
	if !exists {
		return Room{}, errs.NewError(errs.ErrUserNotFound)
	}

	if room.OwnerID != "" {
		return Room{}, errs.NewError(errs.ErrRoomAlreadyOwned)
	}

	if buyer.Coupons < room.Price {
		return Room{}, errs.NewError(errs.ErrInsufficientCoupons)
	}

	// The balance is re-checked inside the user store's exclusive section;
	// a concurrent grant or debit between the check above and here is
	// handled there.
	debited, debitErr := s.users.debit(userID, room.Price)
	if debitErr != nil {
		return Room{}, debitErr
	}

	room.OwnerID = debited.ID
	room.OwnerNickname = debited.Nickname
	s.persistLocked()

	s.logger.Info().
		Str("room_id", roomID).
		Str("user_id", userID).
		Int("price", room.Price).
		Msg("Room purchased.")

	return *room, nil
}

// OwnedRoomIDs returns the sorted ids of all rooms owned by the given user.
func (s *RoomStore) OwnedRoomIDs(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, room := range s.rooms {
		if room.OwnerID == userID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// snapshotLocked copies the room map. Callers must hold at least the read lock.
func (s *RoomStore) snapshotLocked() map[string]Room {
	out := make(map[string]Room, len(s.rooms))
	for id, room := range s.rooms {
		out[id] = *room
	}
	return out
}

// ownerNickname resolves the display name for an owner id. Callers must hold
// at least the read lock; the lock order rooms → users matches the purchase
// path.
func (s *RoomStore) ownerNickname(ownerID string) string {
	if ownerID == "" {
		return ""
	}
	owner, ok := s.users.Get(ownerID)
	if !ok {
		return UnknownOwnerNickname
	}
	return owner.Nickname
}

// persistLocked writes the full room set to disk, sorted by id and without
// the derived display fields. It must be called with the write lock held.
func (s *RoomStore) persistLocked() {
	records := make([]roomRecord, 0, len(s.rooms))
	for _, room := range s.rooms {
		records = append(records, roomRecord{
			ID:      room.ID,
			Q:       room.Q,
			R:       room.R,
			Size:    room.Size,
			Desc:    room.Desc,
			Price:   room.Price,
			OwnerID: room.OwnerID,
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	if err := s.res.WriteAll(records); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist rooms; in-memory state is ahead of disk.")
	}
}
