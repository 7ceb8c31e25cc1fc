package prometheus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veesix-networks/osvolt/pkg/access"
	"github.com/veesix-networks/osvolt/pkg/component"
	"github.com/veesix-networks/osvolt/pkg/logger"
	pkgmetrics "github.com/veesix-networks/osvolt/pkg/metrics"
	"github.com/veesix-networks/osvolt/plugins/exporter/prometheus/metrics"
)

type Status struct {
	State         string `json:"state"`
	ListenAddress string `json:"listen_address,omitempty"`
	HandlerCount  int    `json:"handler_count,omitempty"`
	ServerRunning bool   `json:"server_running,omitempty"`
}

type Component struct {
	*component.Base
	logger        *slog.Logger
	addr          string
	registry      *pkgmetrics.Metrics
	sources       metrics.Sources
	server        *http.Server
	listener      net.Listener
	mu            sync.RWMutex
	handlerCount  int
	serverRunning bool
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Exporter.Prometheus.Enabled {
		return nil, nil
	}

	addr := ":9090"
	if deps.Config.Exporter.Prometheus.ListenAddress != "" {
		addr = deps.Config.Exporter.Prometheus.ListenAddress
	}

	reg := deps.Metrics
	if reg == nil {
		reg = pkgmetrics.New()
	}

	src := metrics.Sources{Events: deps.EventBus, Health: deps.Health}
	if sp, ok := deps.Access.(access.StatsProvider); ok {
		src.Access = sp
	}

	return NewExporter(addr, reg, src), nil
}

func NewExporter(addr string, reg *pkgmetrics.Metrics, src metrics.Sources) *Component {
	return &Component{
		Base:     component.NewBase(Namespace),
		logger:   logger.Get(logger.Exporter),
		addr:     addr,
		registry: reg,
		sources:  src,
	}
}

func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.listener != nil {
		return c.listener.Addr().String()
	}
	return c.addr
}

func (c *Component) GetStatus() *Status {
	c.mu.RLock()
	running, count := c.serverRunning, c.handlerCount
	c.mu.RUnlock()

	state := "stopped"
	if running {
		state = "running"
	}

	return &Status{
		State:         state,
		ListenAddress: c.Addr(),
		HandlerCount:  count,
		ServerRunning: running,
	}
}

func (c *Component) Start(ctx context.Context) error {
	handlers := metrics.DefaultRegistry().CreateHandlers(c.logger)

	collector := &prometheusCollector{
		sources:  c.sources,
		logger:   c.logger,
		handlers: handlers,
	}
	if err := c.registry.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return fmt.Errorf("register collector: %w", err)
		}
	}

	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.addr, err)
	}

	c.StartContext(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry.Registry, promhttp.HandlerOpts{}))

	c.mu.Lock()
	c.handlerCount = len(handlers)
	c.listener = ln
	c.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	c.serverRunning = true
	server := c.server
	c.mu.Unlock()

	c.logger.Info("Starting Prometheus exporter", "addr", ln.Addr().String(), "handlers", len(handlers))

	c.Go(func(ctx context.Context) {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Prometheus HTTP server error", "error", err)
		}
		c.mu.Lock()
		c.serverRunning = false
		c.mu.Unlock()
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping Prometheus exporter")

	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}

	c.StopContext()
	return nil
}

type prometheusCollector struct {
	sources  metrics.Sources
	logger   *slog.Logger
	handlers []metrics.MetricHandler
}

func (pc *prometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, handler := range pc.handlers {
		handler.Describe(ch)
	}
}

func (pc *prometheusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.Background()
	for _, handler := range pc.handlers {
		if err := handler.Collect(ctx, pc.sources, ch); err != nil {
			pc.logger.Debug("Failed to collect metrics", "handler", handler.Name(), "error", err)
		}
	}
}
