// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package rooms

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one websocket connection owned by a user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan outFrame
	userID string

	mu     sync.Mutex
	closed bool
}

// UserID returns the user this connection belongs to.
func (c *Client) UserID() string {
	return c.userID
}

// enqueue hands a frame to the write pump. A client whose buffer is full is
// too far behind to be useful and gets disconnected rather than block the
// broadcasting goroutine. A closed client may linger in the hub's room maps
// until its read pump unregisters it, so enqueue must stay a no-op after
// close or a broadcast would send on a closed channel.
func (c *Client) enqueue(frame outFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.closeLocked()
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(traceID string) {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		scope := envelope.NewRootScope(context.Background(), "rooms.Inbound", traceID)

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			scope.Log.WithError(err).Warn("malformed inbound frame")
			scope.Finish()
			continue
		}

		payload, err := models.DecodeInbound(frame.Event, frame.Payload)
		if err != nil {
			scope.Log.WithError(err).
				WithField("event", frame.Event).
				Warn("rejected inbound event")
			scope.Finish()
			continue
		}

		if c.hub.handler != nil {
			c.hub.handler(scope, c, frame.Event, payload)
		}
		scope.Finish()
	}
}
