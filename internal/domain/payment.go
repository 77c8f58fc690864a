package domain

import "time"

// PaymentStatus represents the status of a payment.
type PaymentStatus string

// List of possible payment statuses
const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

var allowedPaymentStatuses = [...]PaymentStatus{
	PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded,
}

// Valid checks if the PaymentStatus is valid
func (s PaymentStatus) Valid() bool {
	for _, v := range allowedPaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Settled reports whether the payment reached a state that accepts no
// forward progression besides a refund.
func (s PaymentStatus) Settled() bool {
	return s == PaymentCompleted || s == PaymentRefunded
}

// Amount is the fare breakdown captured on the payment record.
// TotalAmount always equals the delivery fare fixed at request time.
type Amount struct {
	BaseFare     float64
	DistanceFare float64
	TotalAmount  float64
	Currency     string
}

// Payment is the one-to-one settlement record for a delivery that reached
// parcel_delivered. At most one non-superseded payment exists per delivery.
type Payment struct {
	ID            int64
	DeliveryID    int64
	CustomerID    int64
	DriverID      int64
	Amount        Amount
	Status        PaymentStatus
	TransactionID string
	ReceiptNumber string
	GatewayRef    string
	Superseded    bool
	ReceiptSent   bool
	CompletedAt   *time.Time
	CreatedAt     time.Time
}
