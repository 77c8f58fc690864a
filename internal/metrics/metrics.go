package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewGatewayRetriesTotal returns a Prometheus counter for the number of retry attempts performed by the payment gateway client
func NewGatewayRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_retries_total",
		Help: "Total number of retry attempts performed by the payment gateway client",
	})
}

// NewTransitionsTotal returns a Prometheus counter vector for applied delivery lifecycle transitions, labelled by action
func NewTransitionsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_transitions_total",
		Help: "Total number of applied delivery lifecycle transitions",
	}, []string{"action"})
}

// NewExpiredTotal returns a Prometheus counter for deliveries swept into expired
func NewExpiredTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deliveries_expired_total",
		Help: "Total number of pending deliveries swept into expired",
	})
}

// NewWSConnectionsActive returns a Prometheus gauge for currently connected websocket clients
func NewWSConnectionsActive() prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "Number of currently connected websocket clients",
	})
}
