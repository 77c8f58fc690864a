package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one authenticated websocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	role   domain.Role
	rooms  []string
}

type inboundMessage struct {
	Type       string   `json:"type"`
	DeliveryID int64    `json:"delivery_id"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	SpeedKmh   *float64 `json:"speed_kmh"`
	Heading    *float64 `json:"heading"`
}

// readPump consumes client messages until the connection drops. Malformed
// and unauthorized messages are logged and dropped, never answered with a
// close: a bad ping must not kill a ride's event stream.
func (c *Client) readPump(ctx context.Context, s *Server) {
	defer func() {
		c.hub.unregister(c)
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("ws: read", logx.Int64("user_id", c.userID), logx.Err(err))
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Debug("ws: bad json", logx.Int64("user_id", c.userID), logx.Err(err))
			continue
		}

		switch msg.Type {
		case "join":
			if msg.DeliveryID > 0 {
				c.hub.Join(c, DeliveryRoom(msg.DeliveryID))
			}
		case "driver:location":
			s.handleDriverLocation(ctx, c, msg)
		default:
			s.logger.Debug("ws: unknown message type",
				logx.Int64("user_id", c.userID),
				logx.String("type", msg.Type),
			)
		}
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings.
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
