package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized indicates the actor lacks the role or ownership the
// requested action requires.
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict indicates an optimistic-concurrency failure: the record
// changed since it was read. Safe to re-fetch and retry once.
var ErrConflict = errors.New("conflict")

// Terminal-state conflicts on accept. Each is distinct so the caller can
// stop retrying with an accurate message.
var (
	ErrAlreadyAccepted = errors.New("ride already accepted")
	ErrExpired         = errors.New("ride expired")
	ErrCancelled       = errors.New("ride cancelled")
)

// ErrNoApprovedVehicle indicates a driver attempted to accept a ride
// without an approved vehicle of the requested type.
var ErrNoApprovedVehicle = errors.New("no approved vehicle")

// ErrGateway indicates the payment provider call failed or timed out; the
// payment and delivery remain in their pre-call state and the operation is
// safe to re-initiate.
var ErrGateway = errors.New("payment gateway error")

// TransitionError is returned when a requested action is not legal from
// the delivery's current state. It wraps ErrInvalid so existing errors.Is
// checks keep working, and carries enough context for the client to stop
// issuing the action.
type TransitionError struct {
	Current string
	Action  string
	Allowed []string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: action %q not allowed from state %q", e.Action, e.Current)
}

// Unwrap makes errors.Is(err, ErrInvalid) hold for transition errors.
func (e *TransitionError) Unwrap() error { return ErrInvalid }
