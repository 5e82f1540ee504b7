/*
Package handler provides the HTTP handler for WebSocket connection upgrading.

This file contains HandleLiveUpdates, which upgrades grid viewers to a
WebSocket connection and hands them to the live hub.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"marsgrid/internal/app/live"
	"marsgrid/internal/pkg/logx"
)

// HandleLiveUpdates upgrades the connection and registers the viewer with the
// live hub. The hub owns the connection from then on.
func HandleLiveUpdates(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote an HTTP error to the client.
			logx.Warn("WebSocket upgrade failed.", "error", err.Error())
			return
		}

		live.NewClient(deps.Hub, conn)
	}
}
