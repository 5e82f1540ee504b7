/*
Package live pushes grid updates to connected browsers over WebSocket.

This file defines the Client wrapping one WebSocket connection. The
connection is write-mostly: the server pushes events and only reads from the
socket to detect disconnects and answer pings.
*/
package live

import (
	"time"

	"github.com/gorilla/websocket"

	"marsgrid/internal/pkg/logx"
)

const (
	// writeWait is the deadline for a single outgoing frame.
	writeWait = 10 * time.Second

	// pongWait is how long the connection may stay silent before it is
	// considered dead. Pings go out at pingPeriod to keep it alive.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 16
)

// Client couples one WebSocket connection to the Hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// send carries encoded events from the Hub's fan-out to the write pump.
	send chan []byte
}

// NewClient registers a fresh connection with the hub and starts its read and
// write pumps. The caller hands over ownership of conn.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	// A connection arriving after shutdown is turned away instead of
	// blocking on a run loop that no longer receives.
	select {
	case hub.register <- c:
	case <-hub.stop:
		conn.Close()
		return c
	}

	go c.writePump()
	go c.readPump()

	return c
}

// readPump drains the connection. Viewers never send application data; the
// read loop exists to process control frames and notice closed connections.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stop:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logx.Warn("Live viewer connection closed unexpectedly.", "error", err.Error())
			}
			return
		}
	}
}

// writePump forwards events from the send channel to the socket and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
