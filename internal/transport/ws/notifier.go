package ws

import (
	"time"

	"swiftdrop/internal/domain"
)

// Notifier translates persisted lifecycle and payment events into websocket
// envelopes. All methods are fire-and-forget.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates a hub-backed notifier.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

type ridePayload struct {
	DeliveryID  int64    `json:"delivery_id"`
	Status      string   `json:"status"`
	DriverID    *int64   `json:"driver_id,omitempty"`
	VehicleType string   `json:"vehicle_type"`
	Pickup      string   `json:"pickup_address"`
	Dropoff     string   `json:"dropoff_address"`
	Fare        float64  `json:"fare"`
	DistanceKm  float64  `json:"distance_km"`
	OccurredAt  string   `json:"occurred_at"`
}

func ridePayloadFrom(d *domain.Delivery, at time.Time) ridePayload {
	return ridePayload{
		DeliveryID:  d.ID,
		Status:      string(d.Status),
		DriverID:    d.DriverID,
		VehicleType: string(d.VehicleType),
		Pickup:      d.Pickup.Address,
		Dropoff:     d.Dropoff.Address,
		Fare:        d.Fare,
		DistanceKm:  d.DistanceKm,
		OccurredAt:  at.UTC().Format(time.RFC3339),
	}
}

// RideRequested announces a new pending ride to all connected drivers.
func (n *Notifier) RideRequested(d *domain.Delivery) {
	if n == nil {
		return
	}
	n.hub.Publish(
		Envelope{Type: "new_ride_request", Data: ridePayloadFrom(d, d.CreatedAt)},
		DriversRoom,
	)
}

// Transition fans a persisted transition out to the parties of the ride.
func (n *Notifier) Transition(d *domain.Delivery, ev domain.TransitionEvent) {
	if n == nil {
		return
	}
	payload := ridePayloadFrom(d, ev.OccurredAt)

	var eventType string
	switch ev.To {
	case domain.StatusAccepted:
		eventType = "ride_accepted"
	case domain.StatusExpired:
		eventType = "ride_expired"
	default:
		eventType = "ride_update"
	}

	rooms := []string{UserRoom(d.CustomerID), DeliveryRoom(d.ID)}
	if d.DriverID != nil {
		rooms = append(rooms, DriverRoom(*d.DriverID))
	}
	n.hub.Publish(Envelope{Type: eventType, Data: payload}, rooms...)
}

type paymentPayload struct {
	DeliveryID    int64   `json:"delivery_id"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	ReceiptNumber string  `json:"receipt_number,omitempty"`
}

func paymentPayloadFrom(p *domain.Payment) paymentPayload {
	return paymentPayload{
		DeliveryID:    p.DeliveryID,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		Amount:        p.Amount.TotalAmount,
		Currency:      p.Amount.Currency,
		ReceiptNumber: p.ReceiptNumber,
	}
}

// PaymentRequired tells the customer a charge is awaiting confirmation.
func (n *Notifier) PaymentRequired(d *domain.Delivery, p *domain.Payment) {
	if n == nil {
		return
	}
	n.hub.Publish(
		Envelope{Type: "payment_required", Data: paymentPayloadFrom(p)},
		UserRoom(d.CustomerID), DeliveryRoom(d.ID),
	)
}

// PaymentCompleted tells the ride's parties the payment settled.
func (n *Notifier) PaymentCompleted(d *domain.Delivery, p *domain.Payment) {
	if n == nil {
		return
	}
	rooms := []string{UserRoom(d.CustomerID), DeliveryRoom(d.ID)}
	if d.DriverID != nil {
		rooms = append(rooms, DriverRoom(*d.DriverID))
	}
	n.hub.Publish(Envelope{Type: "payment_completed", Data: paymentPayloadFrom(p)}, rooms...)
}
