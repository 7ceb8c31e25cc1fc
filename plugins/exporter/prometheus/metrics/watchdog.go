package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

const WatchdogHandlerName = "watchdog"

func init() {
	Register(WatchdogHandlerName, func(logger *slog.Logger) (MetricHandler, error) {
		return newWatchdogMetricHandler(logger), nil
	})
}

type watchdogMetricHandler struct {
	logger *slog.Logger
	descs  map[string]*prometheus.Desc
}

func newWatchdogMetricHandler(logger *slog.Logger) *watchdogMetricHandler {
	labels := []string{"target"}
	return &watchdogMetricHandler{
		logger: logger,
		descs: map[string]*prometheus.Desc{
			"up":       prometheus.NewDesc("osvolt_watchdog_target_up", "Whether the watchdog target is up (1) or not (0)", labels, nil),
			"duration": prometheus.NewDesc("osvolt_watchdog_health_check_duration_seconds", "Duration of the last health check in seconds", labels, nil),
			"failures": prometheus.NewDesc("osvolt_watchdog_failures_total", "Total number of health check failures", labels, nil),
			"ready":    prometheus.NewDesc("osvolt_ready", "Whether all critical watchdog targets are up", nil, nil),
		},
	}
}

func (h *watchdogMetricHandler) Name() string {
	return WatchdogHandlerName
}

func (h *watchdogMetricHandler) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range h.descs {
		ch <- desc
	}
}

func (h *watchdogMetricHandler) Collect(ctx context.Context, src Sources, ch chan<- prometheus.Metric) error {
	if src.Health == nil {
		return nil
	}

	for _, t := range src.Health.GetAllStates() {
		var up, duration float64
		if t.State == "up" {
			up = 1
		}
		if t.LastCheck != nil {
			duration = t.LastCheck.LatencyMs / 1000.0
		}

		ch <- prometheus.MustNewConstMetric(h.descs["up"], prometheus.GaugeValue, up, t.Name)
		ch <- prometheus.MustNewConstMetric(h.descs["duration"], prometheus.GaugeValue, duration, t.Name)
		ch <- prometheus.MustNewConstMetric(h.descs["failures"], prometheus.CounterValue, float64(t.TotalFailures), t.Name)
	}

	var ready float64
	if src.Health.IsReady() {
		ready = 1
	}
	ch <- prometheus.MustNewConstMetric(h.descs["ready"], prometheus.GaugeValue, ready)

	return nil
}
