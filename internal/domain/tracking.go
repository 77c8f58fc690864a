package domain

import "time"

// TrackingPoint is one driver location ping. The tracking stream is
// append-only; rows are written once and never mutated.
type TrackingPoint struct {
	ID         int64
	DeliveryID int64
	DriverID   int64
	VehicleID  int64
	Point      GeoPoint
	SpeedKmh   *float64
	Heading    *float64
	RecordedAt time.Time
}
