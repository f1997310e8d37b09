package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus metrics of the hub.
type metrics struct {
	clients      prometheus.Gauge
	messages     *prometheus.CounterVec
	snapshotSize prometheus.Gauge
}

// newMetrics creates the hub metrics and registers them with reg.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		clients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "linepad_connected_clients",
			Help: "Number of connected clients",
		}),
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linepad_messages_total",
			Help: "Total number of messages received, by type",
		}, []string{"type"}),
		snapshotSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "linepad_snapshot_characters",
			Help: "Number of characters in the document snapshot",
		}),
	}
}
