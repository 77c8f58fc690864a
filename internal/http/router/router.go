package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swiftdrop/internal/auth"
	"swiftdrop/internal/http/handlers"
	"swiftdrop/internal/http/middleware"
	"swiftdrop/internal/http/middleware/ratelimit"
	"swiftdrop/internal/logx"
	"swiftdrop/internal/transport/ws"
)

// Deps carries everything the router mounts.
type Deps struct {
	Base      *handlers.Handlers
	Delivery  *handlers.DeliveryHandler
	Payment   *handlers.PaymentHandler
	Webhook   *handlers.WebhookHandler
	WS        *ws.Server
	Tokens    *auth.Manager
	RateLimit *ratelimit.Middleware
	Logger    logx.Logger
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Observability(d.Logger))
	if d.RateLimit != nil {
		r.Use(d.RateLimit.Handler())
	}

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())

	// webhook and websocket authenticate on their own terms
	r.Post("/webhook/payments", d.Webhook.Payments)
	r.Get("/ws", d.WS.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(15 * time.Second))
		r.Use(middleware.Authenticate(d.Tokens, d.Logger))

		r.Route("/deliveries", func(r chi.Router) {
			r.Post("/", d.Delivery.Request)
			r.Get("/", d.Delivery.List)
			r.Get("/pending", d.Delivery.Pending)
			r.Put("/driver/status", d.Delivery.DriverStatus)
			r.Get("/driver/statistics", d.Delivery.DriverStatistics)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Delivery.Get)
				r.Post("/accept", d.Delivery.Accept)
				r.Put("/status", d.Delivery.UpdateStatus)
				r.Post("/cancel", d.Delivery.Cancel)
				r.Post("/complete", d.Delivery.Complete)
				r.Get("/track", d.Delivery.Track)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initiate", d.Payment.Initiate)
			r.Post("/verify", d.Payment.Verify)
			r.Get("/{deliveryID}", d.Payment.Get)
		})
	})

	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	return r
}
