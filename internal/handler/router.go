/*
Package handler provides the HTTP handlers and routing setup for the marsgrid service.

This file defines the main Router, applying middleware (logging, CORS, metrics,
identity resolution, and IP-based rate limiting) before delegating requests to
the grid, user, payment, and live-update handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"marsgrid/internal/pkg/limiter"
	"marsgrid/internal/pkg/logx"
	"marsgrid/internal/pkg/resp"
)

const (
	PurchaseRate  = 1
	PurchaseBurst = 3
	ConfirmRate   = 0.2
	ConfirmBurst  = 2
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters for the purchase and payment routes,
// configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	purchaseLimiter := limiter.NewIPRateLimiter(rate.Limit(PurchaseRate), PurchaseBurst)
	confirmLimiter := limiter.NewIPRateLimiter(rate.Limit(ConfirmRate), ConfirmBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	r.Use(deps.Metrics.Middleware(chiRoutePatternOrPath))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "marsgrid",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(IdentityResolver(deps))

		api.Get("/rooms", HandleListRooms(deps))
		api.Get("/rooms/{roomID}", HandleGetRoom(deps))
		api.With(purchaseLimiter.Middleware).Post("/rooms/{roomID}/purchase", HandlePurchaseRoom(deps))

		api.Get("/me", HandleGetMe(deps))
		api.Post("/me/nickname", HandleChangeNickname(deps))
		api.Get("/users", HandleListUsers(deps))

		api.With(confirmLimiter.Middleware).Post("/payments/confirm", HandleConfirmPayment(deps))
	})

	r.Get("/ws", HandleLiveUpdates(wsUpgrader, deps))

	return r
}

// chiRoutePatternOrPath labels metrics with the chi route pattern, falling
// back to the raw path outside routed requests.
func chiRoutePatternOrPath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if rp := rctx.RoutePattern(); rp != "" {
			return rp
		}
	}
	return r.URL.Path
}
