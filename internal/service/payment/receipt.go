package payment

import (
	"context"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
)

// LogReceiptSender records the receipt in the service log. Mail delivery
// sits behind the ReceiptSender port; this implementation is what ships
// until a mail provider is wired in.
type LogReceiptSender struct {
	logger logx.Logger
}

// NewLogReceiptSender creates a log-backed receipt sender.
func NewLogReceiptSender(logger logx.Logger) *LogReceiptSender {
	return &LogReceiptSender{logger: logger}
}

// Send implements ReceiptSender.
func (s *LogReceiptSender) Send(_ context.Context, p *domain.Payment, d *domain.Delivery) error {
	s.logger.Info("receipt issued",
		logx.String("event", "receipt_issued"),
		logx.String("receipt_number", p.ReceiptNumber),
		logx.String("transaction_id", p.TransactionID),
		logx.Int64("delivery_id", d.ID),
		logx.Int64("customer_id", d.CustomerID),
		logx.Float64("amount", p.Amount.TotalAmount),
		logx.String("currency", p.Amount.Currency),
	)
	return nil
}
