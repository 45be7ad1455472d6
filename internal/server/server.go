// Package server exposes the service catalog and lifecycle operations over
// HTTP for dashboards and scripting, with Prometheus metrics alongside.
//
// The surface is deliberately thin: every handler resolves a ServiceConfig
// through the registry and delegates to the health monitor or lifecycle
// controller. Lifecycle failures are reported as 502 with the controller's
// operator-facing message; the server adds no interpretation of its own.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetctl/internal/config"
	"fleetctl/internal/health"
	"fleetctl/internal/lifecycle"
	"fleetctl/internal/registry"
	"fleetctl/pkg/logging"
)

const (
	logSubsystem = "Server"

	// actionTimeout sits above the controller's own 120s command timeout so
	// the controller's fault mapping decides the message, not the HTTP layer.
	actionTimeout = 150 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP API over a registry, health monitor and lifecycle
// controller. Construct with New; serve with Run or mount Handler directly.
type Server struct {
	reg     *registry.Registry
	monitor *health.Monitor
	ctrl    *lifecycle.Controller
	metrics *Metrics
	engine  *gin.Engine
}

// ServiceView is a catalog entry together with its current status.
type ServiceView struct {
	config.ServiceConfig
	Status config.ServiceStatus `json:"status"`
}

// ActionResult reports the outcome of a lifecycle action.
type ActionResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// New assembles the router. metrics may be nil to disable instrumentation
// and the /metrics endpoint.
func New(reg *registry.Registry, monitor *health.Monitor, ctrl *lifecycle.Controller, metrics *Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		reg:     reg,
		monitor: monitor,
		ctrl:    ctrl,
		metrics: metrics,
		engine:  engine,
	}

	if metrics != nil {
		engine.Use(metrics.requestMiddleware())
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	engine.GET("/healthz", s.healthz)

	api := engine.Group("/api/v1")
	api.GET("/services", s.listServices)
	api.GET("/services/:id", s.getService)
	api.POST("/services/:id/start", s.action("start", s.ctrl.Start))
	api.POST("/services/:id/stop", s.action("stop", s.ctrl.Stop))
	api.POST("/services/:id/restart", s.action("restart", s.ctrl.Restart))

	return s
}

// Handler returns the underlying router, mountable in tests or a parent mux.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.Info(logSubsystem, "Listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logging.Info(logSubsystem, "Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"services": len(s.reg.List()),
	})
}

func (s *Server) listServices(c *gin.Context) {
	cfgs, err := s.reg.Discover()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	statuses := s.monitor.CheckAll(c.Request.Context(), cfgs)
	views := make([]ServiceView, 0, len(cfgs))
	for _, cfg := range cfgs {
		views = append(views, ServiceView{ServiceConfig: cfg, Status: statuses[cfg.ID]})
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) getService(c *gin.Context) {
	id := c.Param("id")
	cfg, ok := s.reg.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown service %q", id)})
		return
	}

	status := s.monitor.Check(c.Request.Context(), cfg)
	c.JSON(http.StatusOK, ServiceView{ServiceConfig: cfg, Status: status})
}

func (s *Server) action(name string, op func(context.Context, config.ServiceConfig) (bool, string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		cfg, ok := s.reg.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown service %q", id)})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), actionTimeout)
		defer cancel()

		logging.Debug(logSubsystem, "Running %s for %s", name, id)
		ok, msg := op(ctx, cfg)
		if !ok {
			c.JSON(http.StatusBadGateway, ActionResult{OK: false, Message: msg})
			return
		}
		c.JSON(http.StatusOK, ActionResult{OK: true, Message: msg})
	}
}
