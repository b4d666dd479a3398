// internal/adapters/httpapi/server.go
package httpapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netintel/internal/platform/errors"
	"netintel/internal/platform/logx"
)

// Server envuelve http.Server con el stack de middlewares del servicio y
// apagado graceful por señal.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          logx.Logger
}

// ServerConfig configura el servidor HTTP.
type ServerConfig struct {
	Addr            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// NewServer crea el servidor con recovery, request-ID, logging y métricas
// aplicados a todas las rutas.
func NewServer(cfg ServerConfig, handlers *Handlers, logger logx.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	handler := Chain(handlers.Routes(),
		Recovery(logger),
		RequestID(),
		Logging(logger),
		Metrics(),
		MaxBody(cfg.MaxBodyBytes),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger.With("component", "http-server"),
	}
}

// ListenAndServe arranca el servidor y bloquea hasta SIGINT/SIGTERM,
// esperando las peticiones en vuelo hasta el timeout de apagado.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}

	s.logger.Info("server stopped")
	return nil
}
