package pricing

import (
	"fmt"
	"math"

	"swiftdrop/internal/domain"
)

// BaseFare is the fixed component of every fare, in rupees.
const BaseFare = 50

// ratePerKm maps a vehicle class to its per-kilometre rate.
var ratePerKm = map[domain.VehicleType]float64{
	domain.VehicleBike:      10,
	domain.VehicleAuto:      15,
	domain.VehicleMiniTruck: 25,
	domain.VehicleLorry:     40,
}

// Quote is a computed fare, fixed at request time and never recomputed.
type Quote struct {
	DistanceKm   float64
	BaseFare     float64
	DistanceFare float64
	Total        float64
}

// ForRoute computes the fare quote for a pickup/dropoff pair and vehicle type.
func ForRoute(pickup, dropoff domain.GeoPoint, vt domain.VehicleType) (Quote, error) {
	rate, ok := ratePerKm[vt]
	if !ok {
		return Quote{}, fmt.Errorf("unknown vehicle type: %s", vt)
	}
	dist := HaversineKm(pickup, dropoff)
	distanceFare := dist * rate
	return Quote{
		DistanceKm:   dist,
		BaseFare:     BaseFare,
		DistanceFare: distanceFare,
		Total:        BaseFare + distanceFare,
	}, nil
}

const earthRadiusKm = 6371

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b domain.GeoPoint) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
