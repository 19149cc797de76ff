package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"relief/internal/platform/httpserver"
	"relief/internal/platform/redis"
	"relief/internal/ratelimit"
	httptransport "relief/internal/transport/http"
	"relief/pkg/platform/circuit"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	limiter, closeLimiter, err := newLimiter(ctx, a)
	if err != nil {
		return err
	}
	defer closeLimiter()

	router := httptransport.NewRouter(a.module.Handler, httptransport.RouterConfig{
		Logger:             a.logger,
		Metrics:            a.metrics,
		Gatherer:           a.registry,
		Limiter:            limiter,
		CORSAllowedOrigins: a.cfg.Server.CORSAllowedOrigins,
		TrustedProxies:     a.cfg.Server.TrustedProxies,
	})
	srv := httpserver.New(a.cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting relief API",
			"addr", a.cfg.Server.Addr,
			"driver", a.cfg.Database.Driver,
			"allocator", a.cfg.Database.Allocator,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down relief API")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newLimiter uses Redis when REDIS_URL is set so every replica shares one
// budget per client, and an in-process store otherwise. Redis outages trip a
// breaker that moves counting in process until Redis answers again.
func newLimiter(ctx context.Context, a *app) (*ratelimit.Middleware, func(), error) {
	opts := []ratelimit.Option{
		ratelimit.WithLogger(a.logger),
		ratelimit.WithMetrics(a.metrics),
	}
	rc, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if rc == nil {
		store := ratelimit.NewInMemoryStore()
		return ratelimit.New(store, a.cfg.RateLimit.Requests, a.cfg.RateLimit.Window, opts...), func() {}, nil
	}
	store := ratelimit.NewFallbackStore(
		ratelimit.NewRedisStore(rc.Client),
		ratelimit.NewInMemoryStore(),
		circuit.New("ratelimit-redis"),
		a.logger,
	)
	closer := func() { _ = rc.Close() }
	return ratelimit.New(store, a.cfg.RateLimit.Requests, a.cfg.RateLimit.Window, opts...), closer, nil
}
