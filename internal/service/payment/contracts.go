package payment

import (
	"context"
	"time"

	"swiftdrop/internal/domain"
)

type paymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetActiveByDelivery(ctx context.Context, deliveryID int64) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, txnID string) (*domain.Payment, error)
	MarkProcessing(ctx context.Context, id int64) (bool, error)
	MarkPending(ctx context.Context, id int64) (bool, error)
	MarkCompleted(ctx context.Context, id int64, gatewayRef string, completedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64, gatewayRef string) (bool, error)
	Supersede(ctx context.Context, id int64) error
	MarkReceiptSent(ctx context.Context, id int64) (bool, error)
}

type deliveryStore interface {
	Get(ctx context.Context, id int64) (*domain.Delivery, error)
}

// deliveryCompleter drives the payment-gated final transition.
type deliveryCompleter interface {
	Complete(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
}

// ChargeRequest is the outbound charge sent to the payment provider.
type ChargeRequest struct {
	TransactionID string
	Amount        float64
	Currency      string
}

// ChargeResult is the provider's synchronous answer to a charge.
type ChargeResult struct {
	Approved   bool
	GatewayRef string
	Code       string
	Message    string
}

type gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// ReceiptSender dispatches the customer's receipt after a payment settles.
// The exactly-once guard lives in the repository, not in implementations.
type ReceiptSender interface {
	Send(ctx context.Context, p *domain.Payment, d *domain.Delivery) error
}

// Notifier receives settlement events after they are persisted.
type Notifier interface {
	PaymentRequired(d *domain.Delivery, p *domain.Payment)
	PaymentCompleted(d *domain.Delivery, p *domain.Payment)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// PaymentRequired implements Notifier.
func (NopNotifier) PaymentRequired(*domain.Delivery, *domain.Payment) {}

// PaymentCompleted implements Notifier.
func (NopNotifier) PaymentCompleted(*domain.Delivery, *domain.Payment) {}
