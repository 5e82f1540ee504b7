package handler

import (
	"marsgrid/internal/app/live"
	"marsgrid/internal/app/payment"
	"marsgrid/internal/app/store"
	"marsgrid/internal/configs"
	"marsgrid/internal/pkg/metrics"
)

// AppDeps bundles everything the HTTP boundary needs: configuration, the two
// stores, the live hub, the payment client, and metrics. It is constructed
// once in main and passed by reference.
type AppDeps struct {
	Config  *configs.AppConfig
	Users   *store.UserStore
	Rooms   *store.RoomStore
	Hub     *live.Hub
	Payment *payment.Client
	Metrics *metrics.Metrics
}
