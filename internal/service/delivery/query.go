package delivery

import (
	"context"
	"fmt"

	"swiftdrop/internal/apperr"
	"swiftdrop/internal/domain"
)

// PendingRides returns the rides a driver may still accept: pending and
// not yet past their expiry.
func (s *Service) PendingRides(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	if actor.Role != domain.RoleDriver && actor.Role != domain.RoleAdmin {
		return nil, apperr.ErrUnauthorized
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.ListPending(ctx, s.now())
}

// ListForActor returns deliveries filtered by the caller's role: customers
// see their own, drivers their assigned, admins everything.
func (s *Service) ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	switch actor.Role {
	case domain.RoleCustomer:
		return s.repo.ListByCustomer(ctx, actor.UserID)
	case domain.RoleDriver:
		return s.repo.ListByDriver(ctx, actor.UserID)
	case domain.RoleAdmin:
		return s.repo.ListAll(ctx)
	default:
		return nil, apperr.ErrUnauthorized
	}
}

// Get returns one delivery, visible only to its parties and admins.
func (s *Service) Get(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}
	if !mayView(d, actor) {
		return nil, apperr.ErrUnauthorized
	}
	return d, nil
}

// Track returns the most recent tracking position for a delivery.
func (s *Service) Track(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.TrackingPoint, error) {
	d, err := s.Get(ctx, deliveryID, actor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.tracking.LatestByDelivery(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

// SetDriverAvailability toggles a driver between online and offline. A
// driver currently on a ride cannot change availability.
func (s *Service) SetDriverAvailability(ctx context.Context, driverID int64, to domain.DriverStatus) error {
	var from domain.DriverStatus
	switch to {
	case domain.DriverOnline:
		from = domain.DriverOffline
	case domain.DriverOffline:
		from = domain.DriverOnline
	default:
		return fmt.Errorf("%w: availability must be online or offline", apperr.ErrInvalid)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.users.SetDriverStatus(ctx, driverID, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrConflict
	}
	return nil
}

// DriverStatistics returns a driver's completed-ride aggregates.
func (s *Service) DriverStatistics(ctx context.Context, actor domain.Actor) (domain.DriverStatistics, error) {
	if actor.Role != domain.RoleDriver {
		return domain.DriverStatistics{}, apperr.ErrUnauthorized
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.users.Statistics(ctx, actor.UserID)
}

func mayView(d *domain.Delivery, actor domain.Actor) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSystem:
		return true
	case domain.RoleCustomer:
		return d.CustomerID == actor.UserID
	case domain.RoleDriver:
		return d.DriverID != nil && *d.DriverID == actor.UserID
	}
	return false
}
