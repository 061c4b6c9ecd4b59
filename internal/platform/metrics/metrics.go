package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	SessionsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_chat_sessions_resolved_total",
			Help: "Total session resolutions",
		},
		[]string{"outcome"}, // "existing" or "created"
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_messages_sent_total",
			Help: "Total messages sent",
		},
		[]string{"kind"}, // "text" or "image"
	)

	BlobUploads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_blob_uploads_total",
			Help: "Total blob uploads",
		},
	)

	// Connection metrics
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "courier_live_connections",
			Help: "Currently open live connections",
		},
	)

	LiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "courier_live_subscriptions",
			Help: "Currently active live-query subscriptions",
		},
	)
)
