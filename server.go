package relay

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Jack4Code/relay/config"
)

// App interface
type App interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
	Routes() []Route
}

// Run serves app behind the given middleware until SIGINT or SIGTERM.
//
// Every request passes through panic recovery, request IDs, request logging
// and metrics before reaching middlewares, which run in the order given, and
// finally the app's routes.
func Run(app App, cfg config.BaseConfig, middlewares ...Middleware) error {
	ctx := context.Background()
	logger := NewLogger(cfg.LogLevel, os.Stdout).With().Str("environment", cfg.Environment).Logger()

	healthStatus := newHealthStatus()

	// Start health server BEFORE calling OnStart
	// This way Nomad/K8s can see the container is alive
	healthServer := startServer("health", ":"+strconv.Itoa(cfg.GetHealthPort()), healthStatus.Handler(), logger)

	metrics := NewMetrics("relay")
	var metricsServer *http.Server
	if port := cfg.GetMetricsPort(); port != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = startServer("metrics", ":"+strconv.Itoa(port), mux, logger)
	}

	if err := app.OnStart(ctx); err != nil {
		return fmt.Errorf("failed to start app: %w", err)
	}
	healthStatus.SetHealthy(true)

	builder := New(NewMuxRouter(app.Routes()...)).
		WithLogger(logger).
		With(Recover(logger)).
		With(RequestID()).
		With(Logger(logger)).
		With(metrics.Middleware())
	for _, m := range middlewares {
		builder.With(m)
	}
	chain := builder.Build()

	server := startServer("http", ":"+strconv.Itoa(cfg.GetHTTPPort()), chain, logger)
	healthStatus.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down servers")

	// Stop accepting new traffic
	healthStatus.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("main server forced to shutdown")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server forced to shutdown")
		}
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("health server forced to shutdown")
	}

	if err := app.OnStop(ctx); err != nil {
		logger.Error().Err(err).Msg("error during OnStop")
	}

	logger.Info().Msg("servers stopped")
	return nil
}
