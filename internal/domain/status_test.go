package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swiftdrop/internal/domain"
)

func TestNextStatus_HappyPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		from   domain.DeliveryStatus
		action domain.Action
		next   domain.DeliveryStatus
		role   domain.Role
	}{
		{"accept", domain.StatusPending, domain.ActionAccept, domain.StatusAccepted, domain.RoleDriver},
		{"pick_up", domain.StatusAccepted, domain.ActionPickUp, domain.StatusParcelPicked, domain.RoleDriver},
		{"start_route", domain.StatusParcelPicked, domain.ActionStartOut, domain.StatusOnRoute, domain.RoleDriver},
		{"drop_off", domain.StatusOnRoute, domain.ActionDropOff, domain.StatusParcelDelivered, domain.RoleDriver},
		{"complete", domain.StatusParcelDelivered, domain.ActionComplete, domain.StatusDelivered, domain.RoleSystem},
		{"expire", domain.StatusPending, domain.ActionExpire, domain.StatusExpired, domain.RoleSystem},
		{"cancel_pending", domain.StatusPending, domain.ActionCancel, domain.StatusCancelled, domain.RoleCustomer},
		{"cancel_accepted", domain.StatusAccepted, domain.ActionCancel, domain.StatusCancelled, domain.RoleCustomer},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			next, role, ok := domain.NextStatus(tc.from, tc.action)
			require.True(t, ok)
			require.Equal(t, tc.next, next)
			require.Equal(t, tc.role, role)
		})
	}
}

func TestNextStatus_Rejected(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		from   domain.DeliveryStatus
		action domain.Action
	}{
		{"accept_from_accepted", domain.StatusAccepted, domain.ActionAccept},
		{"pick_up_from_pending", domain.StatusPending, domain.ActionPickUp},
		{"drop_off_from_accepted", domain.StatusAccepted, domain.ActionDropOff},
		{"complete_from_on_route", domain.StatusOnRoute, domain.ActionComplete},
		{"expire_from_accepted", domain.StatusAccepted, domain.ActionExpire},
		{"cancel_after_pickup", domain.StatusParcelPicked, domain.ActionCancel},
		{"cancel_from_delivered", domain.StatusDelivered, domain.ActionCancel},
		{"anything_from_expired", domain.StatusExpired, domain.ActionAccept},
		{"unknown_action", domain.StatusPending, domain.Action("teleport")},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, ok := domain.NextStatus(tc.from, tc.action)
			require.False(t, ok)
		})
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []domain.DeliveryStatus{
		domain.StatusDelivered, domain.StatusCancelled, domain.StatusExpired,
	} {
		require.True(t, s.Terminal(), "status %s", s)
	}
	for _, s := range []domain.DeliveryStatus{
		domain.StatusPending, domain.StatusAccepted, domain.StatusParcelPicked,
		domain.StatusOnRoute, domain.StatusParcelDelivered,
	} {
		require.False(t, s.Terminal(), "status %s", s)
	}
}

func TestAllowedActions(t *testing.T) {
	t.Parallel()

	require.ElementsMatch(t,
		[]domain.Action{domain.ActionAccept, domain.ActionCancel, domain.ActionExpire},
		domain.AllowedActions(domain.StatusPending))

	require.ElementsMatch(t,
		[]domain.Action{domain.ActionPickUp, domain.ActionCancel},
		domain.AllowedActions(domain.StatusAccepted))

	require.Empty(t, domain.AllowedActions(domain.StatusDelivered))
	require.Empty(t, domain.AllowedActions(domain.StatusExpired))
}

func TestDeliveryStatus_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, domain.StatusOnRoute.Valid())
	require.False(t, domain.DeliveryStatus("in_flight").Valid())
}
