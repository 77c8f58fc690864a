package delivery

import (
	"context"
	"time"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/ports/dispatchtx"
)

type deliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) error
	Get(ctx context.Context, id int64) (*domain.Delivery, error)
	UpdateStatusFrom(ctx context.Context, id int64, from, to domain.DeliveryStatus) (bool, error)
	ExpirePending(ctx context.Context, now time.Time) ([]int64, error)
	ListPending(ctx context.Context, now time.Time) ([]domain.Delivery, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Delivery, error)
	ListByDriver(ctx context.Context, driverID int64) ([]domain.Delivery, error)
	ListAll(ctx context.Context) ([]domain.Delivery, error)
	WithTx(ctx context.Context, fn func(tx dispatchtx.Repository) error) error
}

type userDirectory interface {
	ApprovedVehicle(ctx context.Context, driverID int64, vt domain.VehicleType) (*domain.Vehicle, error)
	SetDriverStatus(ctx context.Context, driverID int64, from, to domain.DriverStatus) (bool, error)
	Statistics(ctx context.Context, driverID int64) (domain.DriverStatistics, error)
}

type trackingReader interface {
	LatestByDelivery(ctx context.Context, deliveryID int64) (*domain.TrackingPoint, error)
}

// paymentChecker gates the final transition: a delivery may only reach
// delivered once its payment is completed.
type paymentChecker interface {
	CompletedForDelivery(ctx context.Context, deliveryID int64) (bool, error)
}

// Notifier receives lifecycle events after their state change has been
// persisted. Implementations must never block or fail the calling request.
type Notifier interface {
	RideRequested(d *domain.Delivery)
	Transition(d *domain.Delivery, ev domain.TransitionEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// RideRequested implements Notifier.
func (NopNotifier) RideRequested(*domain.Delivery) {}

// Transition implements Notifier.
func (NopNotifier) Transition(*domain.Delivery, domain.TransitionEvent) {}
