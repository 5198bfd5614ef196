package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todoauth/internal/logging"
	"github.com/dmitrijs2005/todoauth/internal/server/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	log    logging.Logger
}

// NewRouter builds the gin engine: middleware, /api routes, /metrics and
// the 404 fallback.
func NewRouter(cfg *config.Config, log logging.Logger, handlerSet HandlerSet) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = true
	engine.RedirectFixedPath = true

	engine.Use(
		RequestID(),
		Logger(log),
		Recovery(log),
		CORS(cfg.AllowCORSOrigins),
	)

	handlerSet.Register(engine.Group("/api"))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.NoRoute(func(c *gin.Context) {
		sendError(c, http.StatusNotFound, msgNotFound)
	})

	return engine
}

func NewHTTPServer(cfg *config.Config, log logging.Logger, handlerSet HandlerSet) *HTTPServer {
	engine := NewRouter(cfg, log, handlerSet)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &HTTPServer{engine: engine, server: srv, log: log}
}

func (s *HTTPServer) Start() error {
	s.log.Info(context.Background(), "http server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info(ctx, "http server shutting down")
	return s.server.Shutdown(ctx)
}
