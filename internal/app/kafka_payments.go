package app

import (
	"context"
	"strings"
	"time"

	gatewaypay "swiftdrop/internal/gateway/payments"
	"swiftdrop/internal/service/payment"
	"swiftdrop/internal/transport/kafka"
)

type paymentEvents interface {
	Handle(ctx context.Context, event payment.Event) error
}

type providerReader interface {
	FetchPayment(ctx context.Context, transactionID string) (*gatewaypay.Payment, error)
}

// makePaymentsKafka builds the worker's event handler. When a gateway
// client is available the event is confirmed against the provider's own
// record first, so a forged or stale message on the topic cannot settle a
// payment the provider never captured.
func makePaymentsKafka(svc paymentEvents, gw providerReader) kafka.HandleFunc {
	return func(ctx context.Context, event payment.Event) error {
		if gw == nil {
			return svc.Handle(ctx, event)
		}

		gwCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		rec, err := gw.FetchPayment(gwCtx, event.TransactionID)
		if err != nil {
			return err
		}
		if rec == nil {
			// the provider does not know this transaction; drop it
			return nil
		}

		if t := eventTypeForProviderStatus(rec.Status); t != "" {
			event.Type = t
		}
		if rec.GatewayRef != "" {
			event.GatewayRef = rec.GatewayRef
		}
		if !rec.UpdatedAt.IsZero() {
			event.OccurredAt = rec.UpdatedAt
		}
		return svc.Handle(ctx, event)
	}
}

func eventTypeForProviderStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "captured", "paid", "completed", "succeeded":
		return payment.EventCaptured
	case "failed", "declined":
		return payment.EventFailed
	default:
		return ""
	}
}
