package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

// client is one connected WebSocket subscriber.
type client struct {
	hub  *Hub
	id   string
	conn *websocket.Conn
	send chan []byte
}

// readPump consumes inbound frames. Clients are pure subscribers; anything
// they send is discarded, but reading is required to process control frames
// and detect disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("read error", "client", c.id, "error", err)
			}
			return
		}
	}
}

// writePump writes queued frames and keepalive pings to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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

// trySend queues a frame without blocking. A full buffer means the client is
// too slow; the frame is dropped and the client catches up from later events.
func (c *client) trySend(frame []byte) {
	defer func() {
		recover() // send on closed channel during disconnect
	}()

	select {
	case c.send <- frame:
	default:
	}
}
