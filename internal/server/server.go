package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/retroplay/gbagent/backend/internal/api/middleware"
	httpapi "github.com/retroplay/gbagent/backend/internal/http"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/config"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/monitoring"
	"github.com/retroplay/gbagent/backend/internal/romlib"
	"github.com/retroplay/gbagent/backend/internal/session"
	"github.com/retroplay/gbagent/backend/internal/tools"
	"github.com/retroplay/gbagent/backend/internal/ws"
)

// Server wraps the web debugger: REST API, WebSocket stream, and
// metrics endpoint.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	hub    *ws.Hub
	log    *logging.Logger
}

// New assembles the router, middleware, and routes.
func New(
	cfg *config.Config,
	sess *session.Controller,
	library *romlib.Library,
	registry *tools.Registry,
	metrics *monitoring.Metrics,
	log *logging.Logger,
	version string,
) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
	}
	router.Use(middleware.CORS(cfg.Web.CORSOrigins))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	interval := time.Duration(cfg.Web.UpdateIntervalMS) * time.Millisecond
	hub := ws.NewHub(sess, interval, log).WithMetrics(metrics)

	handlers := httpapi.NewHandlers(sess, registry, library, hub, log, version)
	wsHandler := ws.NewHandler(hub)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	api := router.Group("/api")
	{
		api.GET("/session", handlers.GetSession)
		api.POST("/session/reset", handlers.ResetSession)
		api.POST("/load-rom", handlers.LoadROM)
		api.POST("/button", handlers.PressButton)
		api.GET("/screen", handlers.Screen)
		api.GET("/roms", handlers.ListROMs)
		api.GET("/server-info", handlers.ServerInfo)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		cfg:    cfg,
		router: router,
		hub:    hub,
		log:    log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web debugger listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown failed: %w", err)
		}
		s.log.Info("web server stopped")
		return nil

	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	}
}
