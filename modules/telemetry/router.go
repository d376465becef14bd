package telemetry

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evermedhq/pulse/pkg/analytics"
	"github.com/evermedhq/pulse/pkg/analytics/rollup"
	"github.com/evermedhq/pulse/pkg/feature"
	"github.com/evermedhq/pulse/pkg/ratelimiter"
)

// RouterOptions configures the telemetry module router. Flags, Tracker and
// Reports are required; the rest is optional hardening.
type RouterOptions struct {
	Flags   *feature.Service
	Tracker *analytics.Tracker
	Reports *rollup.Aggregator

	// AdminToken gates the flag administration and metrics endpoints. An
	// empty token leaves them open, which is only acceptable behind an
	// authenticating proxy.
	AdminToken string

	// EventLimiter, when set, rate limits event ingestion per client.
	EventLimiter ratelimiter.RateLimiter

	Logger *slog.Logger
}

// Router builds the mountable telemetry router:
//
//	GET  /flags          list flag definitions        (admin)
//	PUT  /flags          create a flag                (admin)
//	POST /flags          update or upsert a flag      (admin)
//	POST /events         record one telemetry event   (rate limited)
//	GET  /metrics        windowed rollup report       (admin)
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/telemetry", telemetry.Router(telemetry.RouterOptions{
//	    Flags:   flagSvc,
//	    Tracker: tracker,
//	    Reports: aggregator,
//	}))
func Router(opts RouterOptions) chi.Router {
	if opts.Flags == nil || opts.Tracker == nil || opts.Reports == nil {
		panic("telemetry: Flags, Tracker and Reports are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &handlers{
		flags:   opts.Flags,
		tracker: opts.Tracker,
		reports: opts.Reports,
		log:     opts.Logger,
	}

	r := chi.NewRouter()

	r.Group(func(admin chi.Router) {
		admin.Use(requireAdminToken(opts.AdminToken))
		admin.Get("/flags", h.listFlags)
		admin.Put("/flags", h.createFlag)
		admin.Post("/flags", h.updateFlag)
		admin.Get("/metrics", h.metricsReport)
	})

	r.Group(func(ingest chi.Router) {
		if opts.EventLimiter != nil {
			ingest.Use(ratelimiter.Middleware(opts.EventLimiter, eventKey))
		}
		ingest.Post("/events", h.recordEvent)
	})

	return r
}

// eventKey buckets ingest traffic by forwarded client address when a proxy
// provides one, falling back to the socket peer.
func eventKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
