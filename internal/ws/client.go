package ws

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/kinoroom/kinoroom/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second

	// Per-client outbound buffer; a viewer that falls this far behind
	// is dropped instead of delaying the room
	sendBuffer = 256
)

// Client represents a single viewer's WebSocket connection
type Client struct {
	id     uuid.UUID
	roomID string
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	log    *logger.Logger

	cancel context.CancelFunc
}

func newClient(roomID string, conn *websocket.Conn, hub *Hub, log *logger.Logger) *Client {
	return &Client{
		id:     uuid.New(),
		roomID: roomID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
		log:    log,
	}
}

// deliver enqueues pre-marshaled data without blocking.
// Reports false when the client's buffer is full.
func (c *Client) deliver(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump pumps reads from the WebSocket connection to detect disconnects.
// Viewers issue commands over REST, so inbound frames are drained only to
// keep the connection alive; a read error is the disconnect signal.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.cancel()
	}()

	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				c.log.Debug("viewer disconnected normally",
					"viewer_id", c.id,
					"room_id", c.roomID,
				)
			} else if ctx.Err() == nil {
				c.log.Warn("websocket read error",
					"viewer_id", c.id,
					"room_id", c.roomID,
					"error", err,
				)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
// The connection is closed here so the hub never blocks on a dead peer.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				// Hub closed the channel, room is gone
				c.conn.Close(websocket.StatusNormalClosure, "room closed")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()

			if err != nil {
				c.log.Warn("failed to write message",
					"viewer_id", c.id,
					"room_id", c.roomID,
					"error", err,
				)
				c.conn.Close(websocket.StatusAbnormalClosure, "write failed")
				return
			}

		case <-ticker.C:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(writeCtx)
			cancel()

			if err != nil {
				c.log.Warn("failed to send ping",
					"viewer_id", c.id,
					"room_id", c.roomID,
					"error", err,
				)
				c.conn.Close(websocket.StatusAbnormalClosure, "ping failed")
				return
			}

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
	}
}
