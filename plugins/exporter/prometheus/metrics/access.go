package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

const AccessHandlerName = "access"

func init() {
	Register(AccessHandlerName, func(logger *slog.Logger) (MetricHandler, error) {
		return newAccessMetricHandler(logger), nil
	})
}

type accessMetricHandler struct {
	logger *slog.Logger
	descs  map[string]*prometheus.Desc
}

func newAccessMetricHandler(logger *slog.Logger) *accessMetricHandler {
	return &accessMetricHandler{
		logger: logger,
		descs: map[string]*prometheus.Desc{
			"ports":       prometheus.NewDesc("osvolt_access_known_ports", "Subscriber ports in the device inventory", nil, nil),
			"attachments": prometheus.NewDesc("osvolt_access_attachments", "Provisioned subscriber attachment points", nil, nil),
			"vlans":       prometheus.NewDesc("osvolt_access_subscriber_vlans", "Provisioned subscriber VLAN pairs", nil, nil),
			"queue_len":   prometheus.NewDesc("osvolt_access_queue_length", "Attachment requests waiting in the queue", nil, nil),
			"queue_cap":   prometheus.NewDesc("osvolt_access_queue_capacity", "Capacity of the attachment request queue", nil, nil),
			"processed":   prometheus.NewDesc("osvolt_access_requests_processed_total", "Attachment requests processed by the worker", nil, nil),
			"dropped":     prometheus.NewDesc("osvolt_access_requests_dropped_total", "Attachment requests dropped on a full queue", nil, nil),
		},
	}
}

func (h *accessMetricHandler) Name() string {
	return AccessHandlerName
}

func (h *accessMetricHandler) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range h.descs {
		ch <- desc
	}
}

func (h *accessMetricHandler) Collect(ctx context.Context, src Sources, ch chan<- prometheus.Metric) error {
	if src.Access == nil {
		return nil
	}

	s := src.Access.Stats()

	ch <- prometheus.MustNewConstMetric(h.descs["ports"], prometheus.GaugeValue, float64(s.KnownPorts))
	ch <- prometheus.MustNewConstMetric(h.descs["attachments"], prometheus.GaugeValue, float64(s.Attachments))
	ch <- prometheus.MustNewConstMetric(h.descs["vlans"], prometheus.GaugeValue, float64(s.SubscriberVlans))
	ch <- prometheus.MustNewConstMetric(h.descs["queue_len"], prometheus.GaugeValue, float64(s.QueueLen))
	ch <- prometheus.MustNewConstMetric(h.descs["queue_cap"], prometheus.GaugeValue, float64(s.QueueCap))
	ch <- prometheus.MustNewConstMetric(h.descs["processed"], prometheus.CounterValue, float64(s.Processed))
	ch <- prometheus.MustNewConstMetric(h.descs["dropped"], prometheus.CounterValue, float64(s.Dropped))

	return nil
}
