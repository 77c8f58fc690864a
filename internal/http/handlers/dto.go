package handlers

import (
	"time"

	"swiftdrop/internal/domain"
)

type geoPointDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type locationDTO struct {
	Address string      `json:"address"`
	Point   geoPointDTO `json:"point"`
}

func toLocation(l locationDTO) domain.Location {
	return domain.Location{
		Address: l.Address,
		Point: domain.GeoPoint{
			Latitude:  l.Point.Latitude,
			Longitude: l.Point.Longitude,
		},
	}
}

func fromLocation(l domain.Location) locationDTO {
	return locationDTO{
		Address: l.Address,
		Point: geoPointDTO{
			Latitude:  l.Point.Latitude,
			Longitude: l.Point.Longitude,
		},
	}
}

type requestDeliveryBody struct {
	Pickup      locationDTO `json:"pickup"`
	Dropoff     locationDTO `json:"dropoff"`
	VehicleType string      `json:"vehicle_type"`
	Weight      float64     `json:"weight"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty"`
}

type deliveryResponse struct {
	ID          int64       `json:"id"`
	CustomerID  int64       `json:"customer_id"`
	DriverID    *int64      `json:"driver_id,omitempty"`
	VehicleID   *int64      `json:"vehicle_id,omitempty"`
	Status      string      `json:"status"`
	Pickup      locationDTO `json:"pickup"`
	Dropoff     locationDTO `json:"dropoff"`
	VehicleType string      `json:"vehicle_type"`
	Weight      float64     `json:"weight"`
	DistanceKm  float64     `json:"distance_km"`
	Fare        float64     `json:"fare"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func toDeliveryResponse(d *domain.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:          d.ID,
		CustomerID:  d.CustomerID,
		DriverID:    d.DriverID,
		VehicleID:   d.VehicleID,
		Status:      string(d.Status),
		Pickup:      fromLocation(d.Pickup),
		Dropoff:     fromLocation(d.Dropoff),
		VehicleType: string(d.VehicleType),
		Weight:      d.Weight,
		DistanceKm:  d.DistanceKm,
		Fare:        d.Fare,
		ScheduledAt: d.ScheduledAt,
		ExpiresAt:   d.ExpiresAt,
		DeliveredAt: d.Meta.DeliveredAt,
		CancelledAt: d.Meta.CancelledAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toDeliveryResponses(list []domain.Delivery) []deliveryResponse {
	out := make([]deliveryResponse, 0, len(list))
	for i := range list {
		out = append(out, toDeliveryResponse(&list[i]))
	}
	return out
}

type trackResponse struct {
	DeliveryID int64       `json:"delivery_id"`
	DriverID   int64       `json:"driver_id"`
	Point      geoPointDTO `json:"point"`
	SpeedKmh   *float64    `json:"speed_kmh,omitempty"`
	Heading    *float64    `json:"heading,omitempty"`
	RecordedAt time.Time   `json:"recorded_at"`
}

func toTrackResponse(p *domain.TrackingPoint) trackResponse {
	return trackResponse{
		DeliveryID: p.DeliveryID,
		DriverID:   p.DriverID,
		Point: geoPointDTO{
			Latitude:  p.Point.Latitude,
			Longitude: p.Point.Longitude,
		},
		SpeedKmh:   p.SpeedKmh,
		Heading:    p.Heading,
		RecordedAt: p.RecordedAt,
	}
}

type statisticsResponse struct {
	CompletedRides int64   `json:"completed_rides"`
	TotalEarnings  float64 `json:"total_earnings"`
}

type paymentResponse struct {
	ID            int64      `json:"id"`
	DeliveryID    int64      `json:"delivery_id"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id"`
	ReceiptNumber string     `json:"receipt_number"`
	BaseFare      float64    `json:"base_fare"`
	DistanceFare  float64    `json:"distance_fare"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      string     `json:"currency"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		DeliveryID:    p.DeliveryID,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		ReceiptNumber: p.ReceiptNumber,
		BaseFare:      p.Amount.BaseFare,
		DistanceFare:  p.Amount.DistanceFare,
		TotalAmount:   p.Amount.TotalAmount,
		Currency:      p.Amount.Currency,
		CompletedAt:   p.CompletedAt,
		CreatedAt:     p.CreatedAt,
	}
}
