package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relief/internal/platform/metrics"
	"relief/internal/platform/middleware"
	"relief/internal/ratelimit"
	"relief/internal/relief/handler"
	"relief/pkg/platform/middleware/metadata"
	"relief/pkg/platform/middleware/requesttime"
)

// RouterConfig holds what the router needs beyond the relief handler.
// A nil Gatherer leaves /metrics unmounted. A nil Limiter disables rate limiting.
// Without TrustedProxies the client IP is the TCP peer.
type RouterConfig struct {
	Logger             *slog.Logger
	Metrics            *metrics.Metrics
	Gatherer           prometheus.Gatherer
	Limiter            *ratelimit.Middleware
	CORSAllowedOrigins []string
	TrustedProxies     metadata.TrustedProxies
}

// NewRouter wires the middleware chain and mounts the relief routes.
func NewRouter(h *handler.Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata(cfg.TrustedProxies))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter.Handler)
	}
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	h.Register(r)
	return r
}
