/*
Package handler provides HTTP handler functions for browsing the room grid
and executing purchases.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"marsgrid/internal/pkg/errs"
	"marsgrid/internal/pkg/resp"
)

// identityView is the caller's own snapshot attached to grid responses so the
// page can render the nickname and coupon balance without a second request.
type identityView struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Coupons  int    `json:"coupons"`
}

// HandleListRooms serves the room grid with display-ready owner names.
// An optional q query parameter filters by case-insensitive substring match
// against room id, description, and size; a blank query returns everything.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		query := r.URL.Query().Get("q")
		rooms := deps.Rooms.Search(query)

		resp.RespondSuccess(w, r, map[string]any{
			"rooms": rooms,
			"query": query,
			"me":    identityView{ID: user.ID, Nickname: user.Nickname, Coupons: user.Coupons},
		})
	}
}

// HandleGetRoom serves a single room by id.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")

		room, ok := deps.Rooms.FindByID(roomID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"room": room,
		})
	}
}

// HandlePurchaseRoom executes the purchase transaction for the visiting user.
// On success the fresh coupon balance is returned together with the room, and
// the ownership change is broadcast to live grid viewers.
func HandlePurchaseRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		roomID := chi.URLParam(r, "roomID")

		room, purchaseErr := deps.Rooms.Purchase(roomID, user.ID)
		deps.Metrics.Purchases.WithLabelValues(purchaseOutcome(purchaseErr)).Inc()

		if purchaseErr != nil {
			resp.RespondError(w, r, purchaseErr)
			return
		}

		deps.Hub.BroadcastRoomPurchased(room)

		buyer, _ := deps.Users.Get(user.ID)
		resp.RespondSuccess(w, r, map[string]any{
			"room":    room,
			"coupons": buyer.Coupons,
		})
	}
}

// purchaseOutcome maps a purchase result to a bounded metrics label.
func purchaseOutcome(customErr *errs.CustomError) string {
	if customErr == nil {
		return "success"
	}

	switch customErr.Code {
	case errs.ErrRoomNotFound:
		return "room_not_found"
	case errs.ErrUserNotFound:
		return "user_not_found"
	case errs.ErrRoomAlreadyOwned:
		return "already_owned"
	case errs.ErrInsufficientCoupons:
		return "insufficient_coupons"
	default:
		return "error"
	}
}
