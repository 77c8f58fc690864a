package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
)

type capturingDeliveryReader struct {
	ctx  context.Context
	ride *domain.Delivery
}

func (r *capturingDeliveryReader) Get(ctx context.Context, _ int64) (*domain.Delivery, error) {
	r.ctx = ctx
	return r.ride, nil
}

type capturingTrackingWriter struct {
	ctx   context.Context
	point *domain.TrackingPoint
}

func (w *capturingTrackingWriter) Insert(ctx context.Context, p *domain.TrackingPoint) error {
	w.ctx = ctx
	w.point = p
	return nil
}

func float64p(v float64) *float64 { return &v }

func TestHandleDriverLocation_BoundsDatabaseWork(t *testing.T) {
	t.Parallel()

	driverID := int64(42)
	deliveries := &capturingDeliveryReader{
		ride: &domain.Delivery{ID: 1, CustomerID: 7, DriverID: &driverID, Status: domain.StatusOnRoute},
	}
	tracking := &capturingTrackingWriter{}

	h := NewHub(logx.Nop(), nil)
	srv := NewServer(h, nil, tracking, deliveries, logx.Nop())
	driver := newTestClient(h, driverID, domain.RoleDriver, DriverRoom(driverID))

	srv.handleDriverLocation(context.Background(), driver, inboundMessage{
		Type:       "driver:location",
		DeliveryID: 1,
		Latitude:   float64p(48.86),
		Longitude:  float64p(2.35),
	})

	require.NotNil(t, tracking.point, "a valid ping must be persisted")

	for name, ctx := range map[string]context.Context{
		"delivery lookup": deliveries.ctx,
		"tracking insert": tracking.ctx,
	} {
		deadline, ok := ctx.Deadline()
		require.Truef(t, ok, "%s ran without a deadline", name)
		require.WithinDuration(t, time.Now().Add(locationTimeout), deadline, time.Second)
	}
}
