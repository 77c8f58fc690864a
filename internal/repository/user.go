package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"swiftdrop/internal/domain"
)

// UserRepo represents user/vehicle repository. Users are an external
// concern; the dispatch core only needs identity, role and the
// approved-vehicle precondition for acceptance.
type UserRepo struct {
	db *pgxpool.Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

// Get returns a user by ID, or nil when it does not exist.
func (r *UserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	var lon, lat *float64
	err := r.db.QueryRow(ctx, `
        SELECT id, name, email, role, driver_status, location_lon, location_lat
        FROM users WHERE id = $1
    `, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.DriverStatus, &lon, &lat)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	if lon != nil && lat != nil {
		u.Location = &domain.GeoPoint{Longitude: *lon, Latitude: *lat}
	}
	return &u, nil
}

// ApprovedVehicle returns the driver's approved vehicle of the given type,
// or nil when the driver has none. Lowest id wins when several qualify.
func (r *UserRepo) ApprovedVehicle(ctx context.Context, driverID int64, vt domain.VehicleType) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := r.db.QueryRow(ctx, `
        SELECT id, driver_id, type, plate, approved
        FROM vehicles
        WHERE driver_id = $1 AND type = $2 AND approved
        ORDER BY id
        LIMIT 1
    `, driverID, string(vt)).Scan(&v.ID, &v.DriverID, &v.Type, &v.Plate, &v.Approved)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("approved vehicle for driver %d: %w", driverID, err)
	}
	return &v, nil
}

// SetDriverStatus updates a driver's availability with a guard on the
// current status, so an on_ride driver cannot be flipped offline by a
// stale client.
func (r *UserRepo) SetDriverStatus(ctx context.Context, driverID int64, from, to domain.DriverStatus) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE users
        SET driver_status = $3, updated_at = now()
        WHERE id = $1 AND role = 'driver' AND driver_status = $2
    `, driverID, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("set driver %d status: %w", driverID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// UpdateLocation stores a driver's last reported position.
func (r *UserRepo) UpdateLocation(ctx context.Context, driverID int64, p domain.GeoPoint) error {
	_, err := r.db.Exec(ctx, `
        UPDATE users
        SET location_lon = $2, location_lat = $3, updated_at = now()
        WHERE id = $1 AND role = 'driver'
    `, driverID, p.Longitude, p.Latitude)
	if err != nil {
		return fmt.Errorf("update driver %d location: %w", driverID, err)
	}
	return nil
}

// Statistics aggregates a driver's completed rides and earnings.
func (r *UserRepo) Statistics(ctx context.Context, driverID int64) (domain.DriverStatistics, error) {
	var s domain.DriverStatistics
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*), COALESCE(SUM(fare), 0)
        FROM deliveries
        WHERE driver_id = $1 AND status = 'delivered'
    `, driverID).Scan(&s.CompletedRides, &s.TotalEarnings)
	if err != nil {
		return domain.DriverStatistics{}, fmt.Errorf("driver %d statistics: %w", driverID, err)
	}
	return s, nil
}
