package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/ports/dispatchtx"
)

const deliveryColumns = `
    id, customer_id, driver_id, vehicle_id, status,
    pickup_address, pickup_lon, pickup_lat,
    dropoff_address, dropoff_lon, dropoff_lat,
    vehicle_type, weight_kg, distance_km, fare,
    scheduled_at, expires_at, delivered_at, cancelled_at,
    created_at, updated_at`

// DeliveryRepo represents delivery repository.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var d domain.Delivery
	err := row.Scan(
		&d.ID, &d.CustomerID, &d.DriverID, &d.VehicleID, &d.Status,
		&d.Pickup.Address, &d.Pickup.Point.Longitude, &d.Pickup.Point.Latitude,
		&d.Dropoff.Address, &d.Dropoff.Point.Longitude, &d.Dropoff.Point.Latitude,
		&d.VehicleType, &d.Weight, &d.DistanceKm, &d.Fare,
		&d.ScheduledAt, &d.ExpiresAt, &d.Meta.DeliveredAt, &d.Meta.CancelledAt,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new pending delivery and fills in its generated fields.
func (r *DeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO deliveries (
            customer_id, status,
            pickup_address, pickup_lon, pickup_lat,
            dropoff_address, dropoff_lon, dropoff_lat,
            vehicle_type, weight_kg, distance_km, fare,
            scheduled_at, expires_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING id, created_at, updated_at
    `,
		d.CustomerID, string(domain.StatusPending),
		d.Pickup.Address, d.Pickup.Point.Longitude, d.Pickup.Point.Latitude,
		d.Dropoff.Address, d.Dropoff.Point.Longitude, d.Dropoff.Point.Latitude,
		string(d.VehicleType), d.Weight, d.DistanceKm, d.Fare,
		d.ScheduledAt, d.ExpiresAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	d.Status = domain.StatusPending
	return nil
}

// Get returns a delivery by its ID, or nil when it does not exist.
func (r *DeliveryRepo) Get(ctx context.Context, id int64) (*domain.Delivery, error) {
	row := r.db.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id)
	d, err := scanDelivery(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery %d: %w", id, err)
	}
	return d, nil
}

// UpdateStatusFrom applies the optimistic conditional update "set status=to
// WHERE id AND status=from". It returns false when the guard did not match,
// meaning the record changed since it was read.
func (r *DeliveryRepo) UpdateStatusFrom(ctx context.Context, id int64, from, to domain.DeliveryStatus) (bool, error) {
	return updateStatusFrom(ctx, r.db, id, from, to)
}

// querier is the slice of pgx shared by *pgxpool.Pool and pgx.Tx that the
// status guard needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateStatusFrom(ctx context.Context, q querier, id int64, from, to domain.DeliveryStatus) (bool, error) {
	ct, err := q.Exec(ctx, `
        UPDATE deliveries
        SET status = $3,
            delivered_at = CASE WHEN $3 = 'delivered' THEN now() ELSE delivered_at END,
            cancelled_at = CASE WHEN $3 = 'cancelled' THEN now() ELSE cancelled_at END,
            updated_at = now()
        WHERE id = $1 AND status = $2
    `, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update delivery %d status %s->%s: %w", id, from, to, err)
	}
	return ct.RowsAffected() > 0, nil
}

// ExpirePending drives every stale pending delivery into expired with the
// same status guard acceptance uses, so the two can never both win. The ids
// of expired deliveries are returned for event fan-out.
func (r *DeliveryRepo) ExpirePending(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
        UPDATE deliveries
        SET status = $1, updated_at = now()
        WHERE status = $2 AND expires_at <= $3
        RETURNING id
    `, string(domain.StatusExpired), string(domain.StatusPending), now)
	if err != nil {
		return nil, fmt.Errorf("expire pending deliveries: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPending returns unexpired pending deliveries, oldest first.
func (r *DeliveryRepo) ListPending(ctx context.Context, now time.Time) ([]domain.Delivery, error) {
	return r.list(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries
         WHERE status = 'pending' AND expires_at > $1
         ORDER BY created_at`, now)
}

// ListByCustomer returns a customer's deliveries, newest first.
func (r *DeliveryRepo) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Delivery, error) {
	return r.list(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries
         WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
}

// ListByDriver returns a driver's assigned deliveries, newest first.
func (r *DeliveryRepo) ListByDriver(ctx context.Context, driverID int64) ([]domain.Delivery, error) {
	return r.list(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries
         WHERE driver_id = $1 ORDER BY created_at DESC`, driverID)
}

// ListAll returns every delivery, newest first.
func (r *DeliveryRepo) ListAll(ctx context.Context) ([]domain.Delivery, error) {
	return r.list(ctx, `SELECT `+deliveryColumns+` FROM deliveries ORDER BY created_at DESC`)
}

func (r *DeliveryRepo) list(ctx context.Context, q string, args ...any) ([]domain.Delivery, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// WithTx opens a transaction and executes fn within it.
func (r *DeliveryRepo) WithTx(ctx context.Context, fn func(tx dispatchtx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

// GetDelivery returns a delivery by ID within the transaction, or nil.
func (r *TxRepo) GetDelivery(ctx context.Context, id int64) (*domain.Delivery, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id)
	d, err := scanDelivery(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery %d: %w", id, err)
	}
	return d, nil
}

// AcceptPending assigns driver and vehicle and moves the delivery to
// accepted in a single conditional update. Exactly one concurrent caller's
// update matches the pending row; everyone else gets false.
func (r *TxRepo) AcceptPending(ctx context.Context, deliveryID, driverID, vehicleID int64) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE deliveries
        SET status = $2, driver_id = $3, vehicle_id = $4, updated_at = now()
        WHERE id = $1 AND status = $5
    `, deliveryID, string(domain.StatusAccepted), driverID, vehicleID, string(domain.StatusPending))
	if err != nil {
		return false, fmt.Errorf("accept delivery %d: %w", deliveryID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// UpdateStatusFrom is the transactional form of the optimistic status guard.
func (r *TxRepo) UpdateStatusFrom(ctx context.Context, id int64, from, to domain.DeliveryStatus) (bool, error) {
	return updateStatusFrom(ctx, r.tx, id, from, to)
}

// SetDriverStatus updates a driver's availability within the transaction.
func (r *TxRepo) SetDriverStatus(ctx context.Context, driverID int64, status domain.DriverStatus) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE users
        SET driver_status = $2, updated_at = now()
        WHERE id = $1 AND role = 'driver'
    `, driverID, string(status))
	if err != nil {
		return fmt.Errorf("set driver %d status: %w", driverID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("driver %d not found", driverID)
	}
	return nil
}
