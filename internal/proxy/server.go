package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/idilsaglam/tada-remote/internal/gateway"
	"github.com/idilsaglam/tada-remote/internal/logging"
)

// defaultBindAddress defines the localhost-first serve default.
const defaultBindAddress = "127.0.0.1:8080"

// defaultShutdownTimeout bounds graceful shutdown once the context is done.
const defaultShutdownTimeout = 5 * time.Second

// apiPrefix is where the todos subrouter is mounted.
const apiPrefix = "/api"

// NewMux mounts the API under /api next to /healthz.
func NewMux(remote gateway.Remote, logger *logging.Logger) http.Handler {
	api := NewHandler(remote, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", writeHealthStatus)
	mux.Handle(apiPrefix+"/", http.StripPrefix(apiPrefix, api))
	return mux
}

// Run serves until ctx is canceled or the listener fails.
func Run(ctx context.Context, bind string, remote gateway.Remote, logger *logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	bind = strings.TrimSpace(bind)
	if bind == "" {
		bind = defaultBindAddress
	}

	httpServer := &http.Server{
		Addr:              bind,
		Handler:           NewMux(remote, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- httpServer.ListenAndServe()
	}()
	logger.Info("proxy listening", "bind", bind, "api", apiPrefix+"/todos")

	select {
	case err := <-serveErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		logger.Info("proxy shutting down")
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		serveErr := <-serveErrCh
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve after shutdown: %w", serveErr)
		}
		return nil
	}
}

func writeHealthStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
