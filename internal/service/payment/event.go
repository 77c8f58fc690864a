package payment

import "time"

// Gateway event types the platform reacts to.
const (
	EventCaptured = "payment.captured"
	EventFailed   = "payment.failed"
	EventPaid     = "order.paid"
)

// Event is one payment-gateway notification, arriving either over the
// webhook endpoint or the gateway's event topic.
type Event struct {
	Type          string
	TransactionID string
	GatewayRef    string
	OccurredAt    time.Time
}
