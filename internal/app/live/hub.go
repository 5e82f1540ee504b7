/*
Package live pushes grid updates to connected browsers over WebSocket.

This file defines the Hub, the central registry of connected viewers. Room
ownership changes are broadcast to every client so open grid views update
without polling. The Hub owns the client set; all membership changes go
through its run loop.
*/
package live

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"marsgrid/internal/app/store"
	"marsgrid/internal/pkg/logx"
)

const broadcastBuffer = 64

// EventRoomPurchased announces that a room gained an owner.
const EventRoomPurchased = "room_purchased"

// Event is the JSON message pushed to connected viewers.
type Event struct {
	Type string     `json:"type"`
	Room store.Room `json:"room"`
}

// Hub coordinates all connected viewers and fans broadcast events out to them.
type Hub struct {
	// clients holds the currently connected viewers.
	clients map[*Client]struct{}

	// register and unregister carry membership changes into the run loop.
	register   chan *Client
	unregister chan *Client

	// broadcast carries events to be fanned out to every client.
	broadcast chan Event

	// stop signals the run loop to terminate.
	stop chan struct{}

	// wg waits for the run loop during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its run loop.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, broadcastBuffer),
		stop:       make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "LiveHub").Logger(),
	}

	h.wg.Add(1)
	go h.run()

	return h
}

// run is the Hub's single goroutine owning the client set.
func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Debug().Int("viewers", len(h.clients)).Msg("Viewer connected.")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug().Int("viewers", len(h.clients)).Msg("Viewer disconnected.")
			}

		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Str("event_type", event.Type).Msg("Failed to encode live event.")
				continue
			}

			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// A viewer that cannot keep up is dropped rather
					// than allowed to stall the fan-out.
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-h.stop:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Info().Msg("Live hub stopped.")
			return
		}
	}
}

// BroadcastRoomPurchased pushes a purchase event to all connected viewers.
// The event is dropped if the broadcast queue is full; the grid self-heals on
// the next full page load.
func (h *Hub) BroadcastRoomPurchased(room store.Room) {
	select {
	case h.broadcast <- Event{Type: EventRoomPurchased, Room: room}:
	default:
		h.logger.Warn().Str("room_id", room.ID).Msg("Broadcast queue full; live event dropped.")
	}
}

// Shutdown terminates the run loop and disconnects all viewers.
func (h *Hub) Shutdown() {
	close(h.stop)
	h.wg.Wait()
}
