// Sellercloud Proxy - Thin HTTP front for the Sellercloud inventory REST and SOAP APIs.
// Designed for Cloud Run deployment; the only state is the shared bearer token.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sellercloud-proxy/internal/config"
	"sellercloud-proxy/internal/credential"
	"sellercloud-proxy/internal/handler"
	"sellercloud-proxy/internal/middleware"
	"sellercloud-proxy/internal/sellercloud"
	"sellercloud-proxy/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("api_url", cfg.Sellercloud.APIURL),
		slog.String("soap_url", cfg.Sellercloud.SOAPURL),
		slog.String("tls_fingerprint", string(cfg.TLSFingerprint)),
		slog.Duration("upstream_timeout", cfg.UpstreamTimeout),
	)

	client, err := newSellercloudClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating sellercloud client: %w", err)
	}

	h := handler.New(client, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → logging → cors → rate limit → handler
	// Recovery must be outermost to catch panics from logging middleware
	middlewares := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.CORS(cfg.AllowedOrigins),
	}
	if cfg.RateLimitPerMinute > 0 {
		store, err := middleware.NewRateLimitStore(cfg.RateLimitPerMinute)
		if err != nil {
			return fmt.Errorf("creating rate limit store: %w", err)
		}
		defer store.Close(context.Background())
		middlewares = append(middlewares, middleware.RateLimit(store, logger))
	}
	httpHandler := middleware.Chain(middlewares...)(mux)

	// Create HTTP server with timeouts. Writes outlast the upstream timeout
	// so a slow upstream still gets its error relayed.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// newSellercloudClient wires the upstream transport, the token fetcher and
// the shared credential cache into a Sellercloud client.
func newSellercloudClient(cfg *config.Config, logger *slog.Logger) (*sellercloud.Client, error) {
	httpClient := transport.NewHTTPClient(cfg.UpstreamTimeout, cfg.TLSFingerprint)

	auth := sellercloud.NewAuthenticator(cfg.Sellercloud.APIURL, httpClient, sellercloud.Credentials{
		Username: cfg.Sellercloud.Username,
		Password: cfg.Sellercloud.Password,
		ClientID: cfg.Sellercloud.ClientID,
	})

	tokens, err := credential.New(credential.Config{
		Fetcher:      auth,
		Logger:       logger,
		FetchTimeout: cfg.UpstreamTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating credential cache: %w", err)
	}

	return sellercloud.NewClient(sellercloud.Config{
		APIURL:     cfg.Sellercloud.APIURL,
		SOAPURL:    cfg.Sellercloud.SOAPURL,
		HTTPClient: httpClient,
		Tokens:     tokens,
		Logger:     logger,
	})
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
