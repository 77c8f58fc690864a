package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/http/middleware"
	"swiftdrop/internal/service/payment"
)

type stubDeliveryUC struct {
	requestFn    func(ctx context.Context, req domain.DeliveryRequest) (*domain.Delivery, error)
	acceptFn     func(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
	advanceFn    func(ctx context.Context, deliveryID int64, actor domain.Actor, action domain.Action) (*domain.Delivery, error)
	cancelFn     func(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
	completeFn   func(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
	getFn        func(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error)
	listFn       func(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error)
	pendingFn    func(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error)
	trackFn      func(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.TrackingPoint, error)
	setStatusFn  func(ctx context.Context, driverID int64, to domain.DriverStatus) error
	statisticsFn func(ctx context.Context, actor domain.Actor) (domain.DriverStatistics, error)
}

func (s *stubDeliveryUC) Request(ctx context.Context, req domain.DeliveryRequest) (*domain.Delivery, error) {
	return s.requestFn(ctx, req)
}

func (s *stubDeliveryUC) Accept(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error) {
	return s.acceptFn(ctx, deliveryID, actor)
}

func (s *stubDeliveryUC) Advance(ctx context.Context, deliveryID int64, actor domain.Actor, action domain.Action) (*domain.Delivery, error) {
	return s.advanceFn(ctx, deliveryID, actor, action)
}

func (s *stubDeliveryUC) Cancel(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error) {
	return s.cancelFn(ctx, deliveryID, actor)
}

func (s *stubDeliveryUC) Complete(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error) {
	return s.completeFn(ctx, deliveryID, actor)
}

func (s *stubDeliveryUC) Get(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Delivery, error) {
	return s.getFn(ctx, deliveryID, actor)
}

func (s *stubDeliveryUC) ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	return s.listFn(ctx, actor)
}

func (s *stubDeliveryUC) PendingRides(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	return s.pendingFn(ctx, actor)
}

func (s *stubDeliveryUC) Track(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.TrackingPoint, error) {
	return s.trackFn(ctx, deliveryID, actor)
}

func (s *stubDeliveryUC) SetDriverAvailability(ctx context.Context, driverID int64, to domain.DriverStatus) error {
	return s.setStatusFn(ctx, driverID, to)
}

func (s *stubDeliveryUC) DriverStatistics(ctx context.Context, actor domain.Actor) (domain.DriverStatistics, error) {
	return s.statisticsFn(ctx, actor)
}

type stubPaymentUC struct {
	initiateFn func(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error)
	verifyFn   func(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error)
	getFn      func(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error)
	handleFn   func(ctx context.Context, e payment.Event) error
}

func (s *stubPaymentUC) Initiate(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error) {
	return s.initiateFn(ctx, deliveryID, actor)
}

func (s *stubPaymentUC) Verify(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error) {
	return s.verifyFn(ctx, deliveryID, actor)
}

func (s *stubPaymentUC) GetForDelivery(ctx context.Context, deliveryID int64, actor domain.Actor) (*domain.Payment, error) {
	return s.getFn(ctx, deliveryID, actor)
}

func (s *stubPaymentUC) Handle(ctx context.Context, e payment.Event) error {
	return s.handleFn(ctx, e)
}

// serve runs one request through a chi route so URL params resolve the same
// way they do in the real router. A nil actor simulates a request that
// bypassed authentication.
func serve(t *testing.T, register func(r chi.Router), method, target, body string, actor *domain.Actor) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	register(r)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var (
	customerActor = domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	driverActor   = domain.Actor{UserID: 42, Role: domain.RoleDriver}
)
