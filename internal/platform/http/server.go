package http

import (
	"context"
	"errors"
	"fmt"
	"fxcache/internal/config"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// Start serves handler until ctx is canceled, then drains in-flight requests
// for at most the configured shutdown timeout.
func Start(ctx context.Context, cfg config.HTTPServer, handler http.Handler) error {
	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.Port, err)
	}
	logrus.Infof("✅ HTTP server listening on %s", listener.Addr())

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: seconds(cfg.ReadHeaderTimeoutSeconds, 5*time.Second),
		ReadTimeout:       seconds(cfg.ReadTimeoutSeconds, 10*time.Second),
		WriteTimeout:      seconds(cfg.WriteTimeoutSeconds, 30*time.Second),
	}
	errCh := make(chan error, 1)
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.ShutdownTimeoutSeconds, 10*time.Second))
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("failed to shut down http server: %w", shutdownErr)
		}
		logrus.Info("HTTP server stopped")
		return nil
	case serveErr := <-errCh:
		return serveErr
	}
}
