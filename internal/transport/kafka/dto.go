package kafka

import (
	"strings"
	"time"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/service/payment"
)

// TransitionDTO is the wire form of a delivery lifecycle transition.
type TransitionDTO struct {
	DeliveryID int64     `json:"delivery_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorRole  string    `json:"actor_role"`
	OccurredAt time.Time `json:"occurred_at"`
}

func transitionDTO(ev domain.TransitionEvent) TransitionDTO {
	return TransitionDTO{
		DeliveryID: ev.DeliveryID,
		From:       string(ev.From),
		To:         string(ev.To),
		ActorRole:  string(ev.ActorRole),
		OccurredAt: ev.OccurredAt,
	}
}

// EventDTO is the wire form of a payment provider event.
type EventDTO struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transaction_id"`
	GatewayRef    string    `json:"gateway_ref"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ToDomain converts EventDTO to payment.Event.
func ToDomain(dto EventDTO) payment.Event {
	return payment.Event{
		Type:          strings.TrimSpace(dto.Type),
		TransactionID: strings.TrimSpace(dto.TransactionID),
		GatewayRef:    strings.TrimSpace(dto.GatewayRef),
		OccurredAt:    dto.OccurredAt,
	}
}
