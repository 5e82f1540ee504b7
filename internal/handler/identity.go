/*
Package handler provides the HTTP handlers and routing setup for the marsgrid service.

This file implements cookie-based visitor identity. Visitors are recognized by
a UUID carried in the user_uuid cookie; an absent or malformed value mints a
fresh identity. The resolved User record rides the request context, and the
cookie is reissued on every request to extend its lifetime.
*/
package handler

import (
	"context"
	"net/http"

	"marsgrid/internal/app/store"
	"marsgrid/internal/pkg/randx"
)

// IdentityCookieName is the cookie carrying the visitor's identity token.
const IdentityCookieName = "user_uuid"

// identityCookieMaxAge keeps returning visitors recognized for a year.
const identityCookieMaxAge = 60 * 60 * 24 * 365

type contextKey string

const userContextKey contextKey = "marsgrid.user"

// IdentityResolver returns a middleware that resolves or creates the visitor
// behind the request. The user always exists and is persisted by the time the
// next handler runs.
func IdentityResolver(deps *AppDeps) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string

			if cookie, err := r.Cookie(IdentityCookieName); err == nil {
				if parsed, ok := randx.ParseIdentity(cookie.Value); ok {
					id = parsed
				}
			}
			if id == "" {
				id = randx.NewIdentity()
			}

			user := deps.Users.GetOrCreate(id, deps.Config.DefaultNickname, deps.Config.DefaultCoupons)

			http.SetCookie(w, &http.Cookie{
				Name:     IdentityCookieName,
				Value:    user.ID,
				Path:     "/",
				MaxAge:   identityCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the visitor resolved by IdentityResolver.
func UserFromContext(r *http.Request) (store.User, bool) {
	user, ok := r.Context().Value(userContextKey).(store.User)
	return user, ok
}
