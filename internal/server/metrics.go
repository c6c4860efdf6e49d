package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the prometheus collectors for the transform server. Each
// Server carries its own registry so instances stay independent.
type metrics struct {
	requestsTotal  *prometheus.CounterVec
	duration       prometheus.Histogram
	nodesProcessed *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodectl_transform_requests_total",
				Help: "Total number of transform requests by outcome.",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nodectl_transform_duration_seconds",
				Help:    "Transform request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		nodesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodectl_nodes_processed_total",
				Help: "Nodes processed by activity result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.requestsTotal, m.duration, m.nodesProcessed)
	return m
}
