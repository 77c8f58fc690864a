package payment

import (
	"context"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
)

// Handle processes one gateway event. It is idempotent: replaying an event
// converges on the state a single application produces, with no repeated
// side effects. Unknown event types and unknown transactions are ignored,
// never errors, so the webhook endpoint and the event consumer cannot be
// wedged by noise.
func (s *Service) Handle(ctx context.Context, e Event) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.repo.GetByTransactionID(ctx, e.TransactionID)
	if err != nil {
		return err
	}
	if p == nil {
		s.logger.Warn("gateway event for unknown transaction",
			logx.String("type", e.Type),
			logx.String("transaction_id", e.TransactionID),
		)
		return nil
	}

	switch e.Type {
	case EventCaptured, EventPaid:
		return s.onCaptured(ctx, p, e)
	case EventFailed:
		return s.onFailed(ctx, p, e)
	default:
		s.logger.Debug("unhandled gateway event", logx.String("type", e.Type))
		return nil
	}
}

func (s *Service) onCaptured(ctx context.Context, p *domain.Payment, e Event) error {
	if p.Superseded {
		// a later payment replaced this one; the capture is stale
		s.logger.Warn("capture for superseded payment",
			logx.String("transaction_id", p.TransactionID))
		return nil
	}
	at := e.OccurredAt
	if at.IsZero() {
		at = s.now()
	}
	return s.settle(ctx, p, e.GatewayRef, at)
}

func (s *Service) onFailed(ctx context.Context, p *domain.Payment, e Event) error {
	changed, err := s.repo.MarkFailed(ctx, p.ID, e.GatewayRef)
	if err != nil {
		return err
	}
	if changed {
		s.logger.Warn("payment failed at gateway",
			logx.String("event", "payment_failed"),
			logx.Int64("delivery_id", p.DeliveryID),
			logx.String("transaction_id", p.TransactionID),
		)
	}
	return nil
}
