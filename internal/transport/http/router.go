// Package httptransport assembles the HTTP surface: the middleware chain,
// the unauthenticated operational endpoints, and the authenticated API.
// Business logic lives in the per-area services; handlers only translate.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rinknet/internal/coach"
	"rinknet/internal/contact"
	"rinknet/internal/moderation"
	"rinknet/internal/platform/metrics"
	"rinknet/internal/player"
	"rinknet/internal/ratelimit"
	"rinknet/internal/subscription"
	"rinknet/internal/support"
	"rinknet/internal/transport/http/shared"
	"rinknet/pkg/platform/middleware"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.JWTValidator
	Accounts  middleware.AccountLoader
	RateLimit *ratelimit.Limiter

	Subscriptions *subscription.Handler
	Players       *player.Handler
	Coaches       *coach.Handler
	Contacts      *contact.Handler
	Moderation    *moderation.Handler
	Support       *support.Handler

	RequestTimeout time.Duration
}

// NewRouter builds the full route tree. The webhook stays outside the auth
// chain since the payment provider calls it directly.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(d.Logger))
	if d.RateLimit != nil {
		r.Use(ratelimit.Middleware(d.RateLimit, d.Logger))
	}
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	if d.Metrics != nil {
		r.Use(middleware.Latency(d.Metrics))
	}

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	d.Subscriptions.RegisterWebhook(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(d.Validator, d.Accounts, d.Logger))

		d.Subscriptions.Register(r)
		d.Players.Register(r)
		d.Coaches.Register(r)
		d.Contacts.Register(r)
		d.Moderation.Register(r)
		d.Support.Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Logger))
			d.Moderation.RegisterAdmin(r)
			d.Support.RegisterAdmin(r)
		})
	})

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
