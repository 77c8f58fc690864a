package domain

import "time"

type (
	// DeliveryStatus represents the lifecycle status of a delivery.
	DeliveryStatus string
	// Action represents a requested lifecycle transition.
	Action string
	// VehicleType represents the vehicle class requested for a delivery.
	VehicleType string
)

// List of possible vehicle types
const (
	VehicleBike      VehicleType = "bike"
	VehicleAuto      VehicleType = "auto"
	VehicleMiniTruck VehicleType = "mini_truck"
	VehicleLorry     VehicleType = "lorry"
)

var allowedVehicleTypes = [...]VehicleType{
	VehicleBike, VehicleAuto, VehicleMiniTruck, VehicleLorry,
}

// Valid checks if the VehicleType is valid
func (t VehicleType) Valid() bool {
	for _, v := range allowedVehicleTypes {
		if t == v {
			return true
		}
	}
	return false
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Longitude float64
	Latitude  float64
}

// Location couples a human-readable address with its geographic point.
type Location struct {
	Address string
	Point   GeoPoint
}

// DeliveryMeta carries the auxiliary fields a delivery accumulates over its
// lifetime. A nil field means the corresponding event has not happened.
type DeliveryMeta struct {
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// Delivery is the central record tracking one customer's transport request
// end-to-end. DriverID and VehicleID are set atomically on acceptance and
// absent before it.
type Delivery struct {
	ID          int64
	CustomerID  int64
	DriverID    *int64
	VehicleID   *int64
	Status      DeliveryStatus
	Pickup      Location
	Dropoff     Location
	VehicleType VehicleType
	Weight      float64
	DistanceKm  float64
	Fare        float64
	ScheduledAt time.Time
	ExpiresAt   time.Time
	Meta        DeliveryMeta
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assigned reports whether a driver has been assigned to the delivery.
func (d *Delivery) Assigned() bool {
	return d.DriverID != nil
}

// DeliveryRequest carries the customer input for creating a delivery.
type DeliveryRequest struct {
	CustomerID  int64
	Pickup      Location
	Dropoff     Location
	VehicleType VehicleType
	Weight      float64
	ScheduledAt time.Time
}

// Actor is the identity on whose behalf a transition is requested.
type Actor struct {
	UserID int64
	Role   Role
}

// System is the actor used by the sweeper and the payment callback path.
var System = Actor{Role: RoleSystem}

// TransitionEvent describes one applied lifecycle transition, emitted to the
// notification fan-out after the state change is persisted.
type TransitionEvent struct {
	DeliveryID int64
	From       DeliveryStatus
	To         DeliveryStatus
	ActorRole  Role
	OccurredAt time.Time
}
