package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"swiftdrop/internal/apperr"
	"swiftdrop/internal/domain"
)

const paymentColumns = `
    id, delivery_id, customer_id, driver_id,
    base_fare, distance_fare, total_amount, currency,
    status, transaction_id, receipt_number, gateway_ref,
    superseded, receipt_sent, completed_at, created_at`

// PaymentRepo represents payment repository.
type PaymentRepo struct {
	db *pgxpool.Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(db *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var gatewayRef *string
	err := row.Scan(
		&p.ID, &p.DeliveryID, &p.CustomerID, &p.DriverID,
		&p.Amount.BaseFare, &p.Amount.DistanceFare, &p.Amount.TotalAmount, &p.Amount.Currency,
		&p.Status, &p.TransactionID, &p.ReceiptNumber, &gatewayRef,
		&p.Superseded, &p.ReceiptSent, &p.CompletedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gatewayRef != nil {
		p.GatewayRef = *gatewayRef
	}
	return &p, nil
}

// Create inserts a new payment record. The partial unique index on
// (delivery_id) WHERE NOT superseded turns a concurrent double-initiate
// into apperr.ErrConflict.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO payments (
            delivery_id, customer_id, driver_id,
            base_fare, distance_fare, total_amount, currency,
            status, transaction_id, receipt_number
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at
    `,
		p.DeliveryID, p.CustomerID, p.DriverID,
		p.Amount.BaseFare, p.Amount.DistanceFare, p.Amount.TotalAmount, p.Amount.Currency,
		string(p.Status), p.TransactionID, p.ReceiptNumber,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetActiveByDelivery returns the non-superseded payment for a delivery,
// or nil when none exists.
func (r *PaymentRepo) GetActiveByDelivery(ctx context.Context, deliveryID int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE delivery_id = $1 AND NOT superseded`,
		deliveryID)
	p, err := scanPayment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment for delivery %d: %w", deliveryID, err)
	}
	return p, nil
}

// GetByTransactionID returns a payment by its transaction id, or nil.
func (r *PaymentRepo) GetByTransactionID(ctx context.Context, txnID string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, txnID)
	p, err := scanPayment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by txn %q: %w", txnID, err)
	}
	return p, nil
}

// MarkProcessing moves a pending payment to processing. Returns false when
// the payment already left pending.
func (r *PaymentRepo) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE payments SET status = $2 WHERE id = $1 AND status = $3
    `, id, string(domain.PaymentProcessing), string(domain.PaymentPending))
	if err != nil {
		return false, fmt.Errorf("mark payment %d processing: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// MarkPending returns a processing payment to pending. Used to release a
// charge that never reached the gateway.
func (r *PaymentRepo) MarkPending(ctx context.Context, id int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE payments SET status = $2 WHERE id = $1 AND status = $3
    `, id, string(domain.PaymentPending), string(domain.PaymentProcessing))
	if err != nil {
		return false, fmt.Errorf("mark payment %d pending: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// MarkCompleted settles a payment that is still pending or processing and
// records the gateway reference. Returns false when the payment was already
// settled, which is how a replayed webhook is detected.
func (r *PaymentRepo) MarkCompleted(ctx context.Context, id int64, gatewayRef string, completedAt time.Time) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE payments
        SET status = $2, gateway_ref = $3, completed_at = $4
        WHERE id = $1 AND status IN ($5, $6)
    `, id, string(domain.PaymentCompleted), gatewayRef, completedAt,
		string(domain.PaymentPending), string(domain.PaymentProcessing))
	if err != nil {
		return false, fmt.Errorf("mark payment %d completed: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// MarkFailed moves a pending or processing payment to failed.
func (r *PaymentRepo) MarkFailed(ctx context.Context, id int64, gatewayRef string) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE payments
        SET status = $2, gateway_ref = $3
        WHERE id = $1 AND status IN ($4, $5)
    `, id, string(domain.PaymentFailed), gatewayRef,
		string(domain.PaymentPending), string(domain.PaymentProcessing))
	if err != nil {
		return false, fmt.Errorf("mark payment %d failed: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// Supersede retires a failed payment so the customer can re-initiate.
func (r *PaymentRepo) Supersede(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `
        UPDATE payments SET superseded = TRUE WHERE id = $1 AND status = $2
    `, id, string(domain.PaymentFailed))
	if err != nil {
		return fmt.Errorf("supersede payment %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrConflict
	}
	return nil
}

// MarkReceiptSent flips the receipt flag. Returns false when the receipt
// was already sent; callers use this as the exactly-once dispatch guard.
func (r *PaymentRepo) MarkReceiptSent(ctx context.Context, id int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE payments SET receipt_sent = TRUE WHERE id = $1 AND NOT receipt_sent
    `, id)
	if err != nil {
		return false, fmt.Errorf("mark payment %d receipt sent: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}
