// Package api provides the REST management API. It exposes endpoints
// for health checks, statistics, the resource table, and monitor state
// via a Gin-based HTTP server.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chifu1234/gdnsd/internal/api/handlers"
	"github.com/chifu1234/gdnsd/internal/api/middleware"
	"github.com/chifu1234/gdnsd/internal/config"
	"github.com/chifu1234/gdnsd/internal/failover"
	"github.com/chifu1234/gdnsd/internal/health"
)

// Server is the management REST API server.
//
// Security note: do not expose the API to untrusted networks without
// an API key configured, and even then prefer a trusted network.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the API server. dnsStats may be nil when no DNS front end
// is running; the stats endpoint then omits query counters.
func New(cfg config.APIConfig, logger *slog.Logger, plugin *failover.Plugin, registry *health.Registry, dnsStats handlers.StatsFunc) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))

	h := handlers.New(logger, plugin, registry, dnsStats)
	RegisterRoutes(engine, h, cfg.APIKey)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
