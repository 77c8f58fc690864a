package app

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"swiftdrop/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceeded prometheus.Counter `name:"rate_limit_exceeded_total"`
	GatewayRetries    prometheus.Counter `name:"gateway_retries_total"`
	Expired           prometheus.Counter `name:"deliveries_expired_total"`
	Transitions       *prometheus.CounterVec
	WSActive          prometheus.Gauge
}

func newMetrics() metricsOut {
	out := metricsOut{
		RateLimitExceeded: metrics.NewRateLimitExceededTotal(),
		GatewayRetries:    metrics.NewGatewayRetriesTotal(),
		Expired:           metrics.NewExpiredTotal(),
		Transitions:       metrics.NewTransitionsTotal(),
		WSActive:          metrics.NewWSConnectionsActive(),
	}
	registerCollectors(
		out.RateLimitExceeded,
		out.GatewayRetries,
		out.Expired,
		out.Transitions,
		out.WSActive,
	)
	return out
}

// registerCollectors tolerates re-registration so tests can build more than
// one container per process.
func registerCollectors(cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := prometheus.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func registerMetrics(container *dig.Container) error {
	return provideAll(container, newMetrics)
}
