package handlers

import (
	"context"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/service/delivery"
	"swiftdrop/internal/service/payment"
)

type deliveryUsecase interface {
	Request(ctx context.Context, req domain.DeliveryRequest) (*domain.Delivery, error)
	Accept(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
	Advance(ctx context.Context, deliveryID int64, actor domain.Actor, action domain.Action) (*domain.Delivery, error)
	Cancel(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
	Complete(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
	Get(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
	ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error)
	PendingRides(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error)
	Track(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.TrackingPoint, error)
	SetDriverAvailability(ctx context.Context, driverID int64, to domain.DriverStatus) error
	DriverStatistics(ctx context.Context, actor domain.Actor) (domain.DriverStatistics, error)
}

// NewDeliveryUsecase wires a delivery.Service into a deliveryUsecase.
func NewDeliveryUsecase(svc *delivery.Service) deliveryUsecase {
	return svc
}

type paymentUsecase interface {
	Initiate(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error)
	Verify(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error)
	GetForDelivery(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error)
	Handle(ctx context.Context, e payment.Event) error
}

// NewPaymentUsecase wires a payment.Service into a paymentUsecase.
func NewPaymentUsecase(svc *payment.Service) paymentUsecase {
	return svc
}
