package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"swiftdrop/internal/apperr"
	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
	"swiftdrop/internal/ports/dispatchtx"
	"swiftdrop/internal/pricing"
)

// Service owns the delivery lifecycle: request, acceptance race resolution,
// status advancement, cancellation, payment-gated completion and expiry.
type Service struct {
	repo             deliveryRepository
	users            userDirectory
	tracking         trackingReader
	payments         paymentChecker
	notifier         Notifier
	rideTTL          time.Duration
	operationTimeout time.Duration
	logger           logx.Logger
	transitions      *prometheus.CounterVec
	now              func() time.Time
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// NewService creates a new delivery Service.
func NewService(
	repo deliveryRepository,
	users userDirectory,
	tracking trackingReader,
	payments paymentChecker,
	notifier Notifier,
	rideTTL time.Duration,
	timeout time.Duration,
	logger logx.Logger,
	transitions *prometheus.CounterVec,
) *Service {
	if rideTTL <= 0 {
		rideTTL = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:             repo,
		users:            users,
		tracking:         tracking,
		payments:         payments,
		notifier:         notifier,
		rideTTL:          rideTTL,
		operationTimeout: timeout,
		logger:           logger,
		transitions:      transitions,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) countTransition(action domain.Action) {
	if s.transitions != nil {
		s.transitions.WithLabelValues(string(action)).Inc()
	}
}

func (s *Service) emit(d *domain.Delivery, from domain.DeliveryStatus, action domain.Action, role domain.Role) {
	s.countTransition(action)
	s.notifier.Transition(d, domain.TransitionEvent{
		DeliveryID: d.ID,
		From:       from,
		To:         d.Status,
		ActorRole:  role,
		OccurredAt: s.now(),
	})
}

// Request creates a delivery in pending with fare and expiry fixed at
// creation time.
func (s *Service) Request(ctx context.Context, req domain.DeliveryRequest) (*domain.Delivery, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	quote, err := pricing.ForRoute(req.Pickup.Point, req.Dropoff.Point, req.VehicleType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalid, err)
	}

	now := s.now()
	scheduledAt := req.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = now
	}

	d := &domain.Delivery{
		CustomerID:  req.CustomerID,
		Status:      domain.StatusPending,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		VehicleType: req.VehicleType,
		Weight:      req.Weight,
		DistanceKm:  quote.DistanceKm,
		Fare:        quote.Total,
		ScheduledAt: scheduledAt,
		ExpiresAt:   now.Add(s.rideTTL),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.notifier.RideRequested(d)
	s.logger.Info("ride requested",
		logx.String("event", "ride_requested"),
		logx.Int64("delivery_id", d.ID),
		logx.Int64("customer_id", d.CustomerID),
		logx.Float64("fare", d.Fare),
		logx.Time("expires_at", d.ExpiresAt),
	)
	return d, nil
}

// Accept resolves the single-driver-wins race: one conditional update
// assigns driver, vehicle and the accepted status; every losing caller
// gets a distinct terminal-state error instead of a generic failure.
func (s *Service) Accept(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error) {
	if actor.Role != domain.RoleDriver {
		return nil, apperr.ErrUnauthorized
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	current, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.ErrNotFound
	}

	vehicle, err := s.users.ApprovedVehicle(ctx, actor.UserID, current.VehicleType)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, apperr.ErrNoApprovedVehicle
	}

	var accepted *domain.Delivery
	err = s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		ok, err := tx.AcceptPending(ctx, deliveryID, actor.UserID, vehicle.ID)
		if err != nil {
			return err
		}
		if !ok {
			d, err := tx.GetDelivery(ctx, deliveryID)
			if err != nil {
				return err
			}
			return classifyAcceptLoss(d)
		}

		if err := tx.SetDriverStatus(ctx, actor.UserID, domain.DriverOnRide); err != nil {
			return err
		}

		accepted, err = tx.GetDelivery(ctx, deliveryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(accepted, domain.StatusPending, domain.ActionAccept, domain.RoleDriver)
	s.logger.Info("ride accepted",
		logx.String("event", "ride_accepted"),
		logx.Int64("delivery_id", accepted.ID),
		logx.Int64("driver_id", actor.UserID),
		logx.Int64("vehicle_id", vehicle.ID),
	)
	return accepted, nil
}

// classifyAcceptLoss maps the state a loser of the acceptance race observed
// into a distinguishable error so the client can stop retrying.
func classifyAcceptLoss(d *domain.Delivery) error {
	if d == nil {
		return apperr.ErrNotFound
	}
	switch d.Status {
	case domain.StatusExpired:
		return apperr.ErrExpired
	case domain.StatusCancelled:
		return apperr.ErrCancelled
	default:
		return apperr.ErrAlreadyAccepted
	}
}

// Advance applies one of the driver's parcel-stage actions: pick_up,
// start_route or drop_off.
func (s *Service) Advance(ctx context.Context, deliveryID int64, actor domain.Actor, action domain.Action) (*domain.Delivery, error) {
	switch action {
	case domain.ActionPickUp, domain.ActionStartOut, domain.ActionDropOff:
	default:
		return nil, &apperr.TransitionError{Action: string(action)}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}

	if actor.Role != domain.RoleAdmin {
		if actor.Role != domain.RoleDriver || d.DriverID == nil || *d.DriverID != actor.UserID {
			return nil, apperr.ErrUnauthorized
		}
	}

	next, _, ok := domain.NextStatus(d.Status, action)
	if !ok {
		return nil, transitionError(d.Status, action)
	}

	applied, err := s.repo.UpdateStatusFrom(ctx, deliveryID, d.Status, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperr.ErrConflict
	}

	from := d.Status
	d.Status = next
	s.emit(d, from, action, actor.Role)
	s.logger.Info("ride advanced",
		logx.String("event", "ride_update"),
		logx.Int64("delivery_id", d.ID),
		logx.String("from", string(from)),
		logx.String("to", string(next)),
	)
	return d, nil
}

// Cancel lets the owning customer withdraw a ride that has not progressed
// past accepted. Cancelling an accepted ride frees its driver.
func (s *Service) Cancel(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}
	if actor.Role != domain.RoleCustomer || d.CustomerID != actor.UserID {
		return nil, apperr.ErrUnauthorized
	}

	next, _, ok := domain.NextStatus(d.Status, domain.ActionCancel)
	if !ok {
		return nil, transitionError(d.Status, domain.ActionCancel)
	}

	from := d.Status
	if d.DriverID != nil {
		driverID := *d.DriverID
		err = s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
			applied, err := tx.UpdateStatusFrom(ctx, deliveryID, from, next)
			if err != nil {
				return err
			}
			if !applied {
				return apperr.ErrConflict
			}
			return tx.SetDriverStatus(ctx, driverID, domain.DriverOnline)
		})
	} else {
		var applied bool
		applied, err = s.repo.UpdateStatusFrom(ctx, deliveryID, from, next)
		if err == nil && !applied {
			err = apperr.ErrConflict
		}
	}
	if err != nil {
		return nil, err
	}

	d.Status = next
	s.emit(d, from, domain.ActionCancel, domain.RoleCustomer)
	s.logger.Info("ride cancelled",
		logx.String("event", "ride_cancelled"),
		logx.Int64("delivery_id", d.ID),
	)
	return d, nil
}

// Complete performs the only transition into delivered. It is gated on the
// delivery's payment being completed, whichever path requests it: the
// payment callback (system actor) or the legacy driver-complete route.
func (s *Service) Complete(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}

	switch actor.Role {
	case domain.RoleSystem, domain.RoleAdmin:
	case domain.RoleDriver:
		if d.DriverID == nil || *d.DriverID != actor.UserID {
			return nil, apperr.ErrUnauthorized
		}
	default:
		return nil, apperr.ErrUnauthorized
	}

	next, _, ok := domain.NextStatus(d.Status, domain.ActionComplete)
	if !ok {
		return nil, transitionError(d.Status, domain.ActionComplete)
	}

	paid, err := s.payments.CompletedForDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, fmt.Errorf("payment not completed for delivery %d: %w", deliveryID, apperr.ErrConflict)
	}

	from := d.Status
	err = s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		applied, err := tx.UpdateStatusFrom(ctx, deliveryID, from, next)
		if err != nil {
			return err
		}
		if !applied {
			return apperr.ErrConflict
		}
		if d.DriverID != nil {
			return tx.SetDriverStatus(ctx, *d.DriverID, domain.DriverOnline)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.Status = next
	now := s.now()
	d.Meta.DeliveredAt = &now
	s.emit(d, from, domain.ActionComplete, actor.Role)
	s.logger.Info("ride delivered",
		logx.String("event", "ride_delivered"),
		logx.Int64("delivery_id", d.ID),
	)
	return d, nil
}

// SweepExpired drives every stale pending ride into expired and fans the
// expiries out. It is the source of truth for expiry; client-side timers
// only approximate it.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ids, err := s.repo.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		d, err := s.repo.Get(ctx, id)
		if err != nil || d == nil {
			// already expired in the store; fan-out is best effort
			s.logger.Warn("expired ride fetch failed", logx.Int64("delivery_id", id), logx.Err(err))
			continue
		}
		s.emit(d, domain.StatusPending, domain.ActionExpire, domain.RoleSystem)
	}

	if len(ids) > 0 {
		s.logger.Info("rides expired",
			logx.String("event", "ride_expired"),
			logx.Int("count", len(ids)),
		)
	}
	return len(ids), nil
}

func transitionError(current domain.DeliveryStatus, action domain.Action) error {
	allowed := domain.AllowedActions(current)
	strs := make([]string, 0, len(allowed))
	for _, a := range allowed {
		strs = append(strs, string(a))
	}
	return &apperr.TransitionError{
		Current: string(current),
		Action:  string(action),
		Allowed: strs,
	}
}

func validateRequest(req *domain.DeliveryRequest) error {
	req.Pickup.Address = strings.TrimSpace(req.Pickup.Address)
	req.Dropoff.Address = strings.TrimSpace(req.Dropoff.Address)
	if req.Pickup.Address == "" || req.Dropoff.Address == "" {
		return fmt.Errorf("%w: empty address", apperr.ErrInvalid)
	}
	if !validPoint(req.Pickup.Point) || !validPoint(req.Dropoff.Point) {
		return fmt.Errorf("%w: coordinates out of range", apperr.ErrInvalid)
	}
	if !req.VehicleType.Valid() {
		return fmt.Errorf("%w: unknown vehicle type %q", apperr.ErrInvalid, req.VehicleType)
	}
	if req.Weight < 0 {
		return fmt.Errorf("%w: negative weight", apperr.ErrInvalid)
	}
	return nil
}

func validPoint(p domain.GeoPoint) bool {
	return p.Longitude >= -180 && p.Longitude <= 180 &&
		p.Latitude >= -90 && p.Latitude <= 90
}
