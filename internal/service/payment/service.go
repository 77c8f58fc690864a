package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swiftdrop/internal/apperr"
	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
	"swiftdrop/internal/pricing"
)

// Service owns the payment flow: idempotent initiation keyed on delivery,
// the synchronous gateway charge, and settlement driving the delivery's
// final transition.
type Service struct {
	repo             paymentRepository
	deliveries       deliveryStore
	completer        deliveryCompleter
	gateway          gateway
	receipts         ReceiptSender
	notifier         Notifier
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// NewService creates a new payment Service.
func NewService(
	repo paymentRepository,
	deliveries deliveryStore,
	completer deliveryCompleter,
	gw gateway,
	receipts ReceiptSender,
	notifier Notifier,
	timeout time.Duration,
	logger logx.Logger,
) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:             repo,
		deliveries:       deliveries,
		completer:        completer,
		gateway:          gw,
		receipts:         receipts,
		notifier:         notifier,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Initiate creates the payment record for a delivery that has reached
// parcel_delivered. Re-initiation is idempotent: an unsettled payment is
// returned as-is, a failed one is superseded by a fresh record, and a
// completed one is a conflict.
func (s *Service) Initiate(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.deliveries.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}
	if actor.Role == domain.RoleCustomer && d.CustomerID != actor.UserID {
		return nil, apperr.ErrUnauthorized
	}
	if d.Status != domain.StatusParcelDelivered {
		return nil, &apperr.TransitionError{
			Current: string(d.Status),
			Action:  "initiate_payment",
		}
	}
	if d.DriverID == nil {
		return nil, fmt.Errorf("%w: delivery %d has no driver", apperr.ErrConflict, deliveryID)
	}

	existing, err := s.repo.GetActiveByDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case domain.PaymentCompleted, domain.PaymentRefunded:
			return nil, fmt.Errorf("payment already processed for delivery %d: %w", deliveryID, apperr.ErrConflict)
		case domain.PaymentFailed:
			if err := s.repo.Supersede(ctx, existing.ID); err != nil {
				return nil, err
			}
		default:
			// pending/processing: same payment, no second record
			return existing, nil
		}
	}

	now := s.now()
	p := &domain.Payment{
		DeliveryID: d.ID,
		CustomerID: d.CustomerID,
		DriverID:   *d.DriverID,
		Amount: domain.Amount{
			BaseFare:     pricing.BaseFare,
			DistanceFare: d.Fare - pricing.BaseFare,
			TotalAmount:  d.Fare,
			Currency:     "INR",
		},
		Status:        domain.PaymentPending,
		TransactionID: newTransactionID(now),
		ReceiptNumber: newReceiptNumber(now),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		// lost a create race: the winner's record is the payment
		if errors.Is(err, apperr.ErrConflict) {
			return s.repo.GetActiveByDelivery(ctx, deliveryID)
		}
		return nil, err
	}

	s.notifier.PaymentRequired(d, p)
	s.logger.Info("payment initiated",
		logx.String("event", "payment_initiated"),
		logx.Int64("delivery_id", d.ID),
		logx.String("transaction_id", p.TransactionID),
		logx.Float64("amount", p.Amount.TotalAmount),
	)
	return p, nil
}

// Verify charges the delivery's pending payment through the gateway and,
// on approval, settles it. A timeout or transport failure puts the payment
// back to pending and the call is safe to repeat.
func (s *Service) Verify(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.repo.GetActiveByDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	if actor.Role == domain.RoleCustomer && p.CustomerID != actor.UserID {
		return nil, apperr.ErrUnauthorized
	}

	switch p.Status {
	case domain.PaymentCompleted:
		// replayed verify, nothing to do
		return p, nil
	case domain.PaymentFailed:
		return nil, fmt.Errorf("payment failed, re-initiate: %w", apperr.ErrConflict)
	}

	if _, err := s.repo.MarkProcessing(ctx, p.ID); err != nil {
		return nil, err
	}
	p.Status = domain.PaymentProcessing

	res, err := s.gateway.Charge(ctx, ChargeRequest{
		TransactionID: p.TransactionID,
		Amount:        p.Amount.TotalAmount,
		Currency:      p.Amount.Currency,
	})
	if err != nil {
		s.releaseCharge(ctx, p)
		return nil, fmt.Errorf("charge %s: %w", p.TransactionID, apperr.ErrGateway)
	}

	if !res.Approved {
		if _, err := s.repo.MarkFailed(ctx, p.ID, res.GatewayRef); err != nil {
			return nil, err
		}
		p.Status = domain.PaymentFailed
		s.logger.Warn("payment declined",
			logx.String("transaction_id", p.TransactionID),
			logx.String("code", res.Code),
			logx.String("message", res.Message),
		)
		return nil, fmt.Errorf("payment declined (%s): %w", res.Code, apperr.ErrGateway)
	}

	if err := s.settle(ctx, p, res.GatewayRef, s.now()); err != nil {
		return nil, err
	}
	return p, nil
}

// releaseCharge returns the payment to pending after a charge never reached
// the gateway. The verify context may already be expired, so the revert runs
// on its own deadline; if it fails the payment stays processing, which
// MarkCompleted and MarkFailed both still accept.
func (s *Service) releaseCharge(ctx context.Context, p *domain.Payment) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if _, err := s.repo.MarkPending(rbCtx, p.ID); err != nil {
		s.logger.Warn("payment left processing after gateway failure",
			logx.String("transaction_id", p.TransactionID),
			logx.Err(err),
		)
		return
	}
	p.Status = domain.PaymentPending
}

// settle marks the payment completed, drives the delivery to delivered and
// dispatches the receipt. Every step tolerates having already happened, so
// settling twice converges on the same state.
func (s *Service) settle(ctx context.Context, p *domain.Payment, gatewayRef string, at time.Time) error {
	changed, err := s.repo.MarkCompleted(ctx, p.ID, gatewayRef, at)
	if err != nil {
		return err
	}
	p.Status = domain.PaymentCompleted
	p.GatewayRef = gatewayRef
	p.CompletedAt = &at

	d, err := s.completer.Complete(ctx, p.DeliveryID, domain.System)
	if err != nil {
		var tErr *apperr.TransitionError
		if !errors.As(err, &tErr) {
			return err
		}
		// delivery already delivered by an earlier settle
		d, err = s.deliveries.Get(ctx, p.DeliveryID)
		if err != nil {
			return err
		}
	}

	if err := s.sendReceiptOnce(ctx, p, d); err != nil {
		s.logger.Error("receipt dispatch failed",
			logx.String("transaction_id", p.TransactionID),
			logx.Err(err),
		)
	}

	if changed {
		s.notifier.PaymentCompleted(d, p)
		s.logger.Info("payment completed",
			logx.String("event", "payment_completed"),
			logx.Int64("delivery_id", p.DeliveryID),
			logx.String("transaction_id", p.TransactionID),
		)
	}
	return nil
}

// sendReceiptOnce flips the receipt flag before dispatching, so a replayed
// settlement can never send a second receipt.
func (s *Service) sendReceiptOnce(ctx context.Context, p *domain.Payment, d *domain.Delivery) error {
	first, err := s.repo.MarkReceiptSent(ctx, p.ID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	p.ReceiptSent = true
	return s.receipts.Send(ctx, p, d)
}

// CompletedForDelivery reports whether the delivery's live payment has
// completed. It implements the lifecycle manager's payment gate.
func (s *Service) CompletedForDelivery(ctx context.Context, deliveryID int64) (bool, error) {
	p, err := s.repo.GetActiveByDelivery(ctx, deliveryID)
	if err != nil {
		return false, err
	}
	return p != nil && p.Status == domain.PaymentCompleted, nil
}

// GetForDelivery returns the live payment for a delivery.
func (s *Service) GetForDelivery(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.repo.GetActiveByDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	if actor.Role == domain.RoleCustomer && p.CustomerID != actor.UserID {
		return nil, apperr.ErrUnauthorized
	}
	return p, nil
}
