package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"swiftdrop/internal/auth"
	"swiftdrop/internal/config"
	"swiftdrop/internal/domain"
	gatewaypay "swiftdrop/internal/gateway/payments"
	"swiftdrop/internal/logx"
	"swiftdrop/internal/repository"
	"swiftdrop/internal/service/delivery"
	"swiftdrop/internal/service/payment"
	"swiftdrop/internal/service/sweeper"
	"swiftdrop/internal/transport/kafka"
	"swiftdrop/internal/transport/ws"
)

// paymentGate defers the delivery→payment reference: the delivery service
// gates completion on a payment service that is constructed after it.
type paymentGate struct {
	svc *payment.Service
}

// CompletedForDelivery implements the delivery service's payment check.
func (g *paymentGate) CompletedForDelivery(ctx context.Context, deliveryID int64) (bool, error) {
	if g.svc == nil {
		return false, nil
	}
	return g.svc.CompletedForDelivery(ctx, deliveryID)
}

// fanoutNotifier sends delivery lifecycle events to every sink.
type fanoutNotifier struct {
	ws    *ws.Notifier
	kafka *kafka.Publisher
}

func (n fanoutNotifier) RideRequested(d *domain.Delivery) {
	n.ws.RideRequested(d)
	n.kafka.RideRequested(d)
}

func (n fanoutNotifier) Transition(d *domain.Delivery, ev domain.TransitionEvent) {
	n.ws.Transition(d, ev)
	n.kafka.Transition(d, ev)
}

type servicesIn struct {
	dig.In

	Cfg         *config.Config
	Logger      logx.Logger
	Deliveries  *repository.DeliveryRepo
	Users       *repository.UserRepo
	Tracking    *repository.TrackingRepo
	Payments    *repository.PaymentRepo
	Publisher   *kafka.Publisher
	WSNotifier  *ws.Notifier
	Gateway     *gatewaypay.Client
	Receipts    *payment.LogReceiptSender
	Transitions *prometheus.CounterVec
}

type servicesOut struct {
	dig.Out

	Delivery *delivery.Service
	Payment  *payment.Service
}

// newServices wires the two mutually referencing services together.
func newServices(in servicesIn) servicesOut {
	gate := &paymentGate{}
	notifier := fanoutNotifier{ws: in.WSNotifier, kafka: in.Publisher}

	deliverySvc := delivery.NewService(
		in.Deliveries,
		in.Users,
		in.Tracking,
		gate,
		notifier,
		in.Cfg.Delivery.RideTTL,
		0,
		in.Logger,
		in.Transitions,
	)

	paymentSvc := payment.NewService(
		in.Payments,
		in.Deliveries,
		deliverySvc,
		in.Gateway,
		in.Receipts,
		in.WSNotifier,
		0,
		in.Logger,
	)
	gate.svc = paymentSvc

	return servicesOut{Delivery: deliverySvc, Payment: paymentSvc}
}

type retryingGatewayIn struct {
	dig.In

	Cfg     *config.Config
	Logger  logx.Logger
	Client  *gatewaypay.Client
	Retries prometheus.Counter `name:"gateway_retries_total"`
}

func newRetryingGateway(in retryingGatewayIn) *gatewaypay.RetryingGateway {
	return gatewaypay.NewRetryingGateway(in.Client, in.Logger, in.Retries, gatewaypay.RetryConfig{
		MaxAttempts: in.Cfg.Gateway.MaxAttempts,
		BaseDelay:   in.Cfg.Gateway.BaseDelay,
		MaxDelay:    in.Cfg.Gateway.MaxDelay,
	})
}

type sweeperIn struct {
	dig.In

	Delivery *delivery.Service
	Interval sweepInterval
	Logger   logx.Logger
	Expired  prometheus.Counter `name:"deliveries_expired_total"`
}

// newSweeper lives in the service registration so the API process runs it
// against the same hub its websocket clients are connected to.
func newSweeper(in sweeperIn) *sweeper.Sweeper {
	return sweeper.New(in.Delivery, time.Duration(in.Interval), in.Logger, in.Expired)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) *gatewaypay.Client {
			return gatewaypay.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
		},
		newRetryingGateway,
		func(cfg *config.Config, logger logx.Logger) (*kafka.Publisher, error) {
			return kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, logger)
		},
		func(logger logx.Logger, active prometheus.Gauge) *ws.Hub {
			return ws.NewHub(logger, active)
		},
		ws.NewNotifier,
		func(hub *ws.Hub, tokens *auth.Manager, tracking *repository.TrackingRepo,
			deliveries *repository.DeliveryRepo, logger logx.Logger) *ws.Server {
			return ws.NewServer(hub, tokens, tracking, deliveries, logger)
		},
		payment.NewLogReceiptSender,
		newServices,
		newSweeper,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
	)
}
