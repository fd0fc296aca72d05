// Package server exposes goals and tasks over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/ShayCichocki/mentor/internal/state"
)

// DecomposeFunc turns goal text into subtasks. It returns
// decompose.ErrNoCredential when no model credential is configured.
type DecomposeFunc func(ctx context.Context, goal string) ([]string, error)

// Config holds HTTP settings.
type Config struct {
	Addr           string
	AllowedOrigins []string
	// ListLimit is the default page size for GET /goals.
	ListLimit int
}

// Server serves the goal API.
type Server struct {
	cfg     Config
	echo    *echo.Echo
	handler http.Handler
	log     *log.Logger
}

// New wires routes, request logging and CORS.
func New(store state.StateStore, decompose DecomposeFunc, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = state.DefaultGoalLimit
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(requestLogger(logger))

	register(e, &handlers{
		store:     store,
		decompose: decompose,
		listLimit: cfg.ListLimit,
		log:       logger,
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	})

	return &Server{
		cfg:     cfg,
		echo:    e,
		handler: c.Handler(e),
		log:     logger,
	}
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("[server] listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("[server] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request through logrus.
func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry := logger.WithFields(log.Fields{
				"method":  c.Request().Method,
				"path":    c.Request().URL.Path,
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
			})
			if c.Response().Status >= http.StatusInternalServerError {
				entry.Warn("[server] request failed")
			} else {
				entry.Debug("[server] request")
			}
			return nil
		}
	}
}
