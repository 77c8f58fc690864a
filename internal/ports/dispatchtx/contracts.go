package dispatchtx

import (
	"context"

	"swiftdrop/internal/domain"
)

// Repository is the per-transaction view of the delivery store. Every
// mutation is a conditional update keyed on the expected current state.
type Repository interface {
	GetDelivery(ctx context.Context, id int64) (*domain.Delivery, error)
	AcceptPending(ctx context.Context, deliveryID, driverID, vehicleID int64) (bool, error)
	UpdateStatusFrom(ctx context.Context, id int64, from, to domain.DeliveryStatus) (bool, error)
	SetDriverStatus(ctx context.Context, driverID int64, status domain.DriverStatus) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
