package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/veesix-networks/osvolt/pkg/access"
	"github.com/veesix-networks/osvolt/pkg/component"
	"github.com/veesix-networks/osvolt/pkg/config"
	"github.com/veesix-networks/osvolt/pkg/events"
	"github.com/veesix-networks/osvolt/pkg/health"
	"github.com/veesix-networks/osvolt/pkg/logger"
	"github.com/veesix-networks/osvolt/pkg/metrics"
	"github.com/veesix-networks/osvolt/pkg/provision"
)

const shutdownTimeout = 5 * time.Second

// Component serves the subscriber provisioning REST API.
type Component struct {
	*component.Base
	logger   *slog.Logger
	cfg      config.API
	surface  *provision.Surface
	access   access.Service
	bus      events.Bus
	health   health.StateProvider
	metrics  *metrics.Metrics
	limiter  *clientLimiter
	server   *http.Server
	listener net.Listener
	mu       sync.RWMutex
}

func NewComponent(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.API.Enabled {
		return nil, nil
	}

	if deps.Access == nil {
		return nil, fmt.Errorf("%s requires an access service", Namespace)
	}

	c := New(deps.Config.API, deps.Access, deps.Metrics, deps.EventBus)
	if deps.Health != nil {
		c.SetHealth(deps.Health)
	}
	return c, nil
}

func New(cfg config.API, svc access.Service, m *metrics.Metrics, bus events.Bus) *Component {
	if m == nil {
		m = metrics.New()
	}

	c := &Component{
		Base:    component.NewBase(Namespace),
		logger:  logger.Get(logger.Northbound),
		cfg:     cfg,
		surface: provision.New(svc),
		access:  svc,
		bus:     bus,
		metrics: m,
	}

	if cfg.RateLimit.Enabled {
		c.limiter = newClientLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute)
	}

	return c
}

// SetHealth enables the healthz and readyz endpoints. Call before Start.
func (c *Component) SetHealth(p health.StateProvider) {
	c.health = p
}

func (c *Component) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", c.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.cfg.ListenAddress, err)
	}

	c.StartContext(ctx)

	c.mu.Lock()
	c.listener = ln
	c.server = &http.Server{
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := c.server
	c.mu.Unlock()

	c.logger.Info("Starting API server", "addr", ln.Addr().String(), "base_path", c.cfg.BasePath)

	c.Go(func(ctx context.Context) {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("API server error", "error", err)
		}
	})

	if c.limiter != nil {
		c.Go(c.limiter.evictLoop)
	}

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping API server")

	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	var err error
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
	}

	c.StopContext()
	return err
}

// Addr is the bound listen address, useful when configured with port 0.
func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.listener == nil {
		return c.cfg.ListenAddress
	}
	return c.listener.Addr().String()
}

func (c *Component) GetStatus() *Status {
	state := "stopped"
	if c.Running() {
		state = "running"
	}

	st := &Status{
		State:         state,
		ListenAddress: c.Addr(),
		BasePath:      c.cfg.BasePath,
		Running:       c.Running(),
	}

	if sp, ok := c.access.(access.StatsProvider); ok {
		stats := sp.Stats()
		st.Access = &stats
	}
	if c.bus != nil {
		stats := c.bus.Stats()
		st.Events = &stats
	}

	return st
}

// Handler builds the routed handler with the request middleware applied.
func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, rt := range c.routes() {
		mux.Handle(rt.Method+" "+c.cfg.BasePath+rt.Path, c.provisioning(rt))
	}

	mux.HandleFunc("GET "+c.cfg.BasePath+"/status", c.handleStatus)
	mux.HandleFunc("GET "+c.cfg.BasePath+"/openapi.json", c.handleOpenAPI)

	if c.health != nil {
		mux.Handle("GET "+c.cfg.BasePath+"/healthz", health.HealthzHandler())
		mux.Handle("GET "+c.cfg.BasePath+"/readyz", health.ReadyzHandler(c.health))
	}

	return c.withRequestID(c.withRecover(mux))
}
