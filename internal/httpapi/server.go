package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quillhq/claude-gateway/internal/config"
	"github.com/quillhq/claude-gateway/internal/middleware"
)

// Server owns the HTTP listener and its graceful shutdown.
type Server struct {
	cfg    *config.Manager
	logger *slog.Logger
	client *http.Client
	server *http.Server
}

// New builds a Server. client is the shared outbound HTTP client used for
// every upstream request.
func New(cfg *config.Manager, client *http.Client, logger *slog.Logger) *Server {
	return &Server{cfg: cfg, logger: logger, client: client}
}

// Run starts the listener and blocks until SIGINT/SIGTERM triggers a
// graceful shutdown, or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.cfg.Get()
	if cfg == nil {
		return errors.New("configuration not loaded")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 30 * time.Second,
	}

	s.logger.Info("starting server", "address", addr)

	errCh := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		s.logger.Info("shutting down")
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server exited")

	return nil
}

// Stop shuts the server down from outside Run's signal-handling path. The
// stop command does not call it; it signals the daemon with SIGTERM.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	proxyHandler := NewHandler(s.cfg, s.client, s.logger)
	healthHandler := NewHealthHandler()

	mws := middleware.NewMiddlewareSet(s.logger)

	mux.Handle("/health", mws.HealthChain().Handler(healthHandler))
	mux.Handle("/", mws.DefaultChain().Handler(proxyHandler))

	return mux
}
