package metrics

import (
	"context"
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

const EventsHandlerName = "events"

func init() {
	Register(EventsHandlerName, func(logger *slog.Logger) (MetricHandler, error) {
		return newEventsMetricHandler(logger), nil
	})
}

type eventsMetricHandler struct {
	logger      *slog.Logger
	published   *prometheus.Desc
	dropped     *prometheus.Desc
	queueLen    *prometheus.Desc
	subscribers *prometheus.Desc
}

func newEventsMetricHandler(logger *slog.Logger) *eventsMetricHandler {
	return &eventsMetricHandler{
		logger:      logger,
		published:   prometheus.NewDesc("osvolt_events_published_total", "Events accepted by the event bus", nil, nil),
		dropped:     prometheus.NewDesc("osvolt_events_dropped_total", "Events dropped by the event bus", nil, nil),
		queueLen:    prometheus.NewDesc("osvolt_events_queue_length", "Events waiting for dispatch", nil, nil),
		subscribers: prometheus.NewDesc("osvolt_events_subscribers", "Subscribers per topic", []string{"topic"}, nil),
	}
}

func (h *eventsMetricHandler) Name() string {
	return EventsHandlerName
}

func (h *eventsMetricHandler) Describe(ch chan<- *prometheus.Desc) {
	ch <- h.published
	ch <- h.dropped
	ch <- h.queueLen
	ch <- h.subscribers
}

func (h *eventsMetricHandler) Collect(ctx context.Context, src Sources, ch chan<- prometheus.Metric) error {
	if src.Events == nil {
		return nil
	}

	s := src.Events.Stats()

	ch <- prometheus.MustNewConstMetric(h.published, prometheus.CounterValue, float64(s.Published))
	ch <- prometheus.MustNewConstMetric(h.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(h.queueLen, prometheus.GaugeValue, float64(s.QueueLen))

	topics := make([]string, 0, len(s.Subscribers))
	for topic := range s.Subscribers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	for _, topic := range topics {
		ch <- prometheus.MustNewConstMetric(h.subscribers, prometheus.GaugeValue, float64(s.Subscribers[topic]), topic)
	}

	return nil
}
