package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"swiftdrop/internal/auth"
	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
)

type trackingWriter interface {
	Insert(ctx context.Context, p *domain.TrackingPoint) error
}

type deliveryReader interface {
	Get(ctx context.Context, id int64) (*domain.Delivery, error)
}

var errInvalidAuthMessage = errors.New("first frame is not an auth message")

// locationTimeout bounds the DB work done for one location ping so a
// stalled pool cannot wedge a client's read loop.
const locationTimeout = 3 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Server upgrades HTTP connections, authenticates them and hands them to
// the hub.
type Server struct {
	hub        *Hub
	tokens     *auth.Manager
	tracking   trackingWriter
	deliveries deliveryReader
	logger     logx.Logger
}

// NewServer creates a websocket server.
func NewServer(hub *Hub, tokens *auth.Manager, tracking trackingWriter, deliveries deliveryReader, logger logx.Logger) *Server {
	return &Server{
		hub:        hub,
		tokens:     tokens,
		tracking:   tracking,
		deliveries: deliveries,
		logger:     logger,
	}
}

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// ServeHTTP handles GET /ws. The first frame must be an auth message; a
// token query parameter is accepted as an alternative for clients that can
// send one.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws: upgrade failed", logx.Err(err))
		return
	}

	claims, err := s.authenticate(r, conn)
	if err != nil {
		s.logger.Warn("ws: auth failed", logx.Err(err))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "auth failed"))
		conn.Close()
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: claims.UserID,
		role:   claims.Role,
		rooms:  identityRooms(claims),
	}
	s.hub.register(client)

	ack, _ := json.Marshal(Envelope{Type: "authenticated"})
	client.send <- ack

	s.logger.Info("ws: client connected",
		logx.Int64("user_id", claims.UserID),
		logx.String("role", string(claims.Role)),
	)

	// the request context dies when ServeHTTP returns; the pumps outlive it
	go client.writePump()
	go client.readPump(context.Background(), s)
}

func (s *Server) authenticate(r *http.Request, conn *websocket.Conn) (*auth.Claims, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return s.tokens.Parse(token)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	var msg authMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return nil, err
	}
	if msg.Type != "auth" {
		return nil, errInvalidAuthMessage
	}
	return s.tokens.Parse(msg.Token)
}

func identityRooms(claims *auth.Claims) []string {
	rooms := []string{UserRoom(claims.UserID)}
	if claims.Role == domain.RoleDriver {
		rooms = append(rooms, DriverRoom(claims.UserID), DriversRoom)
	}
	return rooms
}

// locationPayload is the driver_location event rebroadcast to the ride room.
type locationPayload struct {
	DeliveryID int64    `json:"delivery_id"`
	DriverID   int64    `json:"driver_id"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	SpeedKmh   *float64 `json:"speed_kmh,omitempty"`
	Heading    *float64 `json:"heading,omitempty"`
	RecordedAt string   `json:"recorded_at"`
}

// handleDriverLocation validates, persists and rebroadcasts one location
// ping. Invalid pings are dropped with a log line so one bad client cannot
// poison the stream.
func (s *Server) handleDriverLocation(ctx context.Context, c *Client, msg inboundMessage) {
	if c.role != domain.RoleDriver {
		s.logger.Debug("ws: location ping from non-driver", logx.Int64("user_id", c.userID))
		return
	}
	if msg.DeliveryID <= 0 || msg.Latitude == nil || msg.Longitude == nil ||
		*msg.Latitude < -90 || *msg.Latitude > 90 ||
		*msg.Longitude < -180 || *msg.Longitude > 180 {
		s.logger.Debug("ws: invalid location ping",
			logx.Int64("user_id", c.userID),
			logx.Int64("delivery_id", msg.DeliveryID),
		)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, locationTimeout)
	defer cancel()

	d, err := s.deliveries.Get(ctx, msg.DeliveryID)
	if err != nil {
		s.logger.Warn("ws: load delivery for ping", logx.Int64("delivery_id", msg.DeliveryID), logx.Err(err))
		return
	}
	if d == nil || d.DriverID == nil || *d.DriverID != c.userID || d.Status.Terminal() {
		s.logger.Debug("ws: location ping for foreign or finished delivery",
			logx.Int64("user_id", c.userID),
			logx.Int64("delivery_id", msg.DeliveryID),
		)
		return
	}

	point := &domain.TrackingPoint{
		DeliveryID: d.ID,
		DriverID:   *d.DriverID,
		Point:      domain.GeoPoint{Latitude: *msg.Latitude, Longitude: *msg.Longitude},
		SpeedKmh:   msg.SpeedKmh,
		Heading:    msg.Heading,
	}
	if d.VehicleID != nil {
		point.VehicleID = *d.VehicleID
	}
	if err := s.tracking.Insert(ctx, point); err != nil {
		s.logger.Warn("ws: persist location ping", logx.Int64("delivery_id", d.ID), logx.Err(err))
		return
	}

	s.hub.Publish(Envelope{
		Type: "driver_location",
		Data: locationPayload{
			DeliveryID: d.ID,
			DriverID:   *d.DriverID,
			Latitude:   point.Point.Latitude,
			Longitude:  point.Point.Longitude,
			SpeedKmh:   msg.SpeedKmh,
			Heading:    msg.Heading,
			RecordedAt: point.RecordedAt.UTC().Format(time.RFC3339),
		},
	}, DeliveryRoom(d.ID), UserRoom(d.CustomerID))
}
