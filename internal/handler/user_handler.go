/*
Package handler provides HTTP handler functions for the visitor's own profile
and the public user directory.
*/
package handler

import (
	"net/http"

	"marsgrid/internal/app/store"
	"marsgrid/internal/pkg/errs"
	"marsgrid/internal/pkg/req"
	"marsgrid/internal/pkg/resp"
)

// userDirectoryEntry pairs a user with the ids of the rooms they own.
type userDirectoryEntry struct {
	ID         string   `json:"id"`
	Nickname   string   `json:"nickname"`
	Coupons    int      `json:"coupons"`
	CreatedAt  int64    `json:"createdAt"`
	OwnedRooms []string `json:"ownedRooms"`
}

// HandleGetMe serves the visiting user's own record and owned rooms.
func HandleGetMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		// Re-read so a purchase earlier in the session is reflected.
		current, exists := deps.Users.Get(user.ID)
		if !exists {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		resp.RespondSuccess(w, r, directoryEntry(current, deps.Rooms))
	}
}

type ChangeNicknameInput struct {
	Nickname string `json:"nickname"`
}

// HandleChangeNickname renames the visiting user. The input is trimmed and
// must be at least two characters long.
func HandleChangeNickname(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		var input ChangeNicknameInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		renamed, renameErr := deps.Users.Rename(user.ID, input.Nickname)
		if renameErr != nil {
			resp.RespondError(w, r, renameErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"nickname": renamed.Nickname,
		})
	}
}

// HandleListUsers serves the public directory: every user together with the
// ids of the rooms they own.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := deps.Users.ListAll()

		entries := make([]userDirectoryEntry, 0, len(users))
		for _, u := range users {
			entries = append(entries, directoryEntry(u, deps.Rooms))
		}

		resp.RespondSuccess(w, r, map[string]any{
			"users": entries,
		})
	}
}

func directoryEntry(u store.User, rooms *store.RoomStore) userDirectoryEntry {
	return userDirectoryEntry{
		ID:         u.ID,
		Nickname:   u.Nickname,
		Coupons:    u.Coupons,
		CreatedAt:  u.CreatedAt,
		OwnedRooms: rooms.OwnedRoomIDs(u.ID),
	}
}
