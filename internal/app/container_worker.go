package app

import (
	"context"
	"fmt"

	"go.uber.org/dig"

	"swiftdrop/internal/config"
	gatewaypay "swiftdrop/internal/gateway/payments"
	"swiftdrop/internal/logx"
	"swiftdrop/internal/service/payment"
	"swiftdrop/internal/transport/kafka"
)

// MustBuildWorkerContainer builds the DI container for the worker process,
// which consumes the gateway's payment-events stream. Expiry sweeping runs
// in the API process, next to the hub its subscribers are connected to.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

// MustBuildWorker builds and returns a new worker dig container
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	container, err := b.buildWorker(ctx)
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) buildWorker(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect, b.migrate); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerMetrics(container); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerWorker(container); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config, svc *payment.Service, gw *gatewaypay.RetryingGateway,
			logger logx.Logger) (*kafka.Consumer, error) {
			var reader providerReader
			if gw != nil {
				reader = gw
			}
			return kafka.NewConsumer(
				cfg.Kafka.Brokers,
				cfg.Kafka.GroupID,
				cfg.Kafka.PaymentsTopic,
				makePaymentsKafka(svc, reader),
				logger,
			)
		},
	)
}
