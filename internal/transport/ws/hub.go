package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"swiftdrop/internal/logx"
)

// Envelope is the wire form of every server→client message.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Room names. Every client joins its identity rooms at connect time; the
// delivery rooms are joined explicitly with a "join" message.
func UserRoom(id int64) string     { return fmt.Sprintf("user:%d", id) }
func DriverRoom(id int64) string   { return fmt.Sprintf("driver:%d", id) }
func DeliveryRoom(id int64) string { return fmt.Sprintf("delivery:%d", id) }

// DriversRoom is joined by every connected driver; pending ride
// announcements go here.
const DriversRoom = "drivers"

// Hub tracks connected clients and the rooms they subscribe to.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger logx.Logger
	active prometheus.Gauge
}

// NewHub creates an empty hub. The gauge may be nil.
func NewHub(logger logx.Logger, active prometheus.Gauge) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
		active: active,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.rooms {
		h.joinLocked(c, room)
	}
	if h.active != nil {
		h.active.Inc()
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.rooms {
		h.leaveLocked(c, room)
	}
	if h.active != nil {
		h.active.Dec()
	}
}

// Join subscribes a client to a room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range c.rooms {
		if r == room {
			return
		}
	}
	c.rooms = append(c.rooms, room)
	h.joinLocked(c, room)
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Publish sends an envelope to every client in the given rooms. Slow
// clients are skipped rather than blocked on.
func (h *Hub) Publish(env Envelope, rooms ...string) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("ws: marshal envelope", logx.String("type", env.Type), logx.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]struct{})
	for _, room := range rooms {
		for c := range h.rooms[room] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			select {
			case c.send <- payload:
			default:
				h.logger.Warn("ws: send buffer full, dropping message",
					logx.Int64("user_id", c.userID),
					logx.String("type", env.Type),
				)
			}
		}
	}
}
