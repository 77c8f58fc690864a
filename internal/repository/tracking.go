package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"swiftdrop/internal/domain"
)

// TrackingRepo represents the append-only tracking stream.
type TrackingRepo struct {
	db *pgxpool.Pool
}

// NewTrackingRepo creates a new TrackingRepo.
func NewTrackingRepo(db *pgxpool.Pool) *TrackingRepo {
	return &TrackingRepo{db: db}
}

// Insert appends one location ping. Rows are never updated or deleted.
func (r *TrackingRepo) Insert(ctx context.Context, p *domain.TrackingPoint) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO tracking (delivery_id, driver_id, vehicle_id, lon, lat, speed_kmh, heading)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, recorded_at
    `, p.DeliveryID, p.DriverID, p.VehicleID,
		p.Point.Longitude, p.Point.Latitude, p.SpeedKmh, p.Heading,
	).Scan(&p.ID, &p.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert tracking point: %w", err)
	}
	return nil
}

// LatestByDelivery returns the most recent ping for a delivery, or nil.
func (r *TrackingRepo) LatestByDelivery(ctx context.Context, deliveryID int64) (*domain.TrackingPoint, error) {
	var p domain.TrackingPoint
	err := r.db.QueryRow(ctx, `
        SELECT id, delivery_id, driver_id, vehicle_id, lon, lat, speed_kmh, heading, recorded_at
        FROM tracking
        WHERE delivery_id = $1
        ORDER BY recorded_at DESC
        LIMIT 1
    `, deliveryID).Scan(
		&p.ID, &p.DeliveryID, &p.DriverID, &p.VehicleID,
		&p.Point.Longitude, &p.Point.Latitude, &p.SpeedKmh, &p.Heading, &p.RecordedAt,
	)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest tracking for delivery %d: %w", deliveryID, err)
	}
	return &p, nil
}
