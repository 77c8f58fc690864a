package domain

// List of possible delivery statuses
const (
	StatusPending         DeliveryStatus = "pending"
	StatusAccepted        DeliveryStatus = "accepted"
	StatusParcelPicked    DeliveryStatus = "parcel_picked"
	StatusOnRoute         DeliveryStatus = "on_route"
	StatusParcelDelivered DeliveryStatus = "parcel_delivered"
	StatusDelivered       DeliveryStatus = "delivered"
	StatusCancelled       DeliveryStatus = "cancelled"
	StatusExpired         DeliveryStatus = "expired"
)

// List of possible lifecycle actions
const (
	ActionAccept   Action = "accept"
	ActionPickUp   Action = "pick_up"
	ActionStartOut Action = "start_route"
	ActionDropOff  Action = "drop_off"
	ActionComplete Action = "complete_after_payment"
	ActionCancel   Action = "cancel"
	ActionExpire   Action = "expire"
)

// List of allowed statuses
var allowedStatuses = [...]DeliveryStatus{
	StatusPending, StatusAccepted, StatusParcelPicked, StatusOnRoute,
	StatusParcelDelivered, StatusDelivered, StatusCancelled, StatusExpired,
}

// Valid checks if the DeliveryStatus is valid
func (s DeliveryStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// transitionRule encodes one row of the legal transition table: the status
// a delivery must currently be in, the resulting status and the role
// allowed to request the move.
type transitionRule struct {
	From DeliveryStatus
	Next DeliveryStatus
	Role Role
}

// transitions is the complete legal transition table. Anything not listed
// here fails as an invalid transition.
var transitions = map[Action]transitionRule{
	ActionAccept:   {From: StatusPending, Next: StatusAccepted, Role: RoleDriver},
	ActionPickUp:   {From: StatusAccepted, Next: StatusParcelPicked, Role: RoleDriver},
	ActionStartOut: {From: StatusParcelPicked, Next: StatusOnRoute, Role: RoleDriver},
	ActionDropOff:  {From: StatusOnRoute, Next: StatusParcelDelivered, Role: RoleDriver},
	ActionComplete: {From: StatusParcelDelivered, Next: StatusDelivered, Role: RoleSystem},
	ActionExpire:   {From: StatusPending, Next: StatusExpired, Role: RoleSystem},
	// cancel is the only action legal from more than one status; it is
	// special-cased in NextStatus.
	ActionCancel: {From: StatusPending, Next: StatusCancelled, Role: RoleCustomer},
}

// NextStatus resolves the status a delivery moves to when action is applied
// from the given status, together with the role required to request it.
// ok is false when the transition is not in the table.
func NextStatus(from DeliveryStatus, action Action) (next DeliveryStatus, role Role, ok bool) {
	rule, found := transitions[action]
	if !found {
		return "", "", false
	}
	if action == ActionCancel {
		// Cancellation is restricted to pending/accepted; broader windows
		// are a product decision that was never confirmed.
		if from != StatusPending && from != StatusAccepted {
			return "", "", false
		}
		return rule.Next, rule.Role, true
	}
	if rule.From != from {
		return "", "", false
	}
	return rule.Next, rule.Role, true
}

// AllowedActions lists the actions legal from the given status, used to
// build actionable error messages for rejected transitions.
func AllowedActions(from DeliveryStatus) []Action {
	var out []Action
	for _, a := range []Action{
		ActionAccept, ActionPickUp, ActionStartOut, ActionDropOff,
		ActionComplete, ActionCancel, ActionExpire,
	} {
		if _, _, ok := NextStatus(from, a); ok {
			out = append(out, a)
		}
	}
	return out
}
