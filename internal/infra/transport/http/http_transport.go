package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/homecase-users/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// Host is the interface to bind, empty for all interfaces
	Host string `env:"HOST" envDefault:""`
	// Port is the TCP port to listen on
	Port int `env:"PORT" envDefault:"3000"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	// ShutdownTimeout bounds how long in-flight requests may run after a stop signal
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Addr returns the host:port listen address.
func (cfg HTTPTransportConfig) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

// HTTPTransport defines the interface for HTTP handlers that can serve requests.
type HTTPTransport interface {
	http.Handler
}

// WithMiddleware wraps handler with the standard middleware chain:
// tracing, then logging, then panic rescue closest to the handler.
func WithMiddleware(handler HTTPTransport, log logging.Logger) http.Handler {
	handler = RescueingMiddleware(handler, log)
	handler = LoggingMiddleware(handler, log)
	handler = TracingMiddleware(handler)

	return handler
}

// ListenAndServe starts an HTTP server with the given handler and configuration
// and blocks until ctx is canceled or the server fails.
// On cancellation the server is shut down gracefully within cfg.ShutdownTimeout.
func ListenAndServe(ctx context.Context, handler HTTPTransport, cfg HTTPTransportConfig) error {
	sock, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, sock, handler, cfg)
}

// Serve is ListenAndServe on an existing listener. The listener is closed on return.
func Serve(ctx context.Context, sock net.Listener, handler HTTPTransport, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Handler:           WithMiddleware(handler, log),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.InfoContext(ctx, "listening", "addr", sock.Addr().String())

		if err := server.Serve(sock); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		log.InfoContext(ctx, "shutting down", "timeout", cfg.ShutdownTimeout)

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	//nolint:wrapcheck
	return group.Wait()
}
