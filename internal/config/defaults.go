package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "swiftdrop",
}

var defaultDelivery = Delivery{
	RideTTL:       5 * time.Minute,
	SweepInterval: 10 * time.Second,
}

var defaultKafka = Kafka{
	Brokers:       nil, // kafka is optional; empty brokers disable it
	EventsTopic:   "delivery-events",
	PaymentsTopic: "payment-events",
	GroupID:       "swiftdrop-worker",
}

var defaultAuth = Auth{
	Secret:    "",
	AccessTTL: 24 * time.Hour,
}

var defaultGateway = Gateway{
	BaseURL:     "http://localhost:9090",
	Timeout:     5 * time.Second,
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    false,
	Rate:       50,
	Burst:      100,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

var defaultPprof = Pprof{Port: 6060}

// DefaultDelivery returns the default lifecycle settings.
func DefaultDelivery() Delivery {
	return defaultDelivery
}

// DefaultGateway returns the default payment-gateway settings.
func DefaultGateway() Gateway {
	return defaultGateway
}
