package domain

type (
	// Role represents the role of a platform user.
	Role string
	// DriverStatus represents a driver's availability.
	DriverStatus string
)

// List of possible user roles
const (
	RoleAdmin    Role = "admin"
	RoleDriver   Role = "driver"
	RoleCustomer Role = "customer"
	// RoleSystem is not a stored role; it marks transitions driven by the
	// sweeper and the payment callback path.
	RoleSystem Role = "system"
)

// List of possible driver statuses
const (
	DriverOffline DriverStatus = "offline"
	DriverOnline  DriverStatus = "online"
	DriverOnRide  DriverStatus = "on_ride"
)

var allowedRoles = [...]Role{RoleAdmin, RoleDriver, RoleCustomer}

var allowedDriverStatuses = [...]DriverStatus{
	DriverOffline, DriverOnline, DriverOnRide,
}

// Valid checks if the Role is a storable user role
func (r Role) Valid() bool {
	for _, v := range allowedRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Valid checks if the DriverStatus is valid
func (s DriverStatus) Valid() bool {
	for _, v := range allowedDriverStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// User is the actor-identity record consumed by the lifecycle permission
// checks. Driver-specific fields are zero for other roles.
type User struct {
	ID           int64
	Name         string
	Email        string
	Role         Role
	DriverStatus DriverStatus
	Location     *GeoPoint
}

// Vehicle is a driver's registered vehicle; only approved vehicles make a
// driver eligible to accept rides.
type Vehicle struct {
	ID       int64
	DriverID int64
	Type     VehicleType
	Plate    string
	Approved bool
}

// DriverStatistics aggregates a driver's completed work.
type DriverStatistics struct {
	CompletedRides int64
	TotalEarnings  float64
}
