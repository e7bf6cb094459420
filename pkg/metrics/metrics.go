package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "campusconecto"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	RelayEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "relay_events_emitted_total", Help: "Realtime events emitted by event name and origin (local|remote)."},
		[]string{"event", "origin"},
	)
	RelayDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "relay_events_dropped_total", Help: "Realtime events dropped because a client send buffer was full."},
		[]string{"event"},
	)
	RelayConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "relay_connections", Help: "Currently connected realtime clients."},
	)
	MailSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "mail_sent_total", Help: "Mail delivery attempts by provider and result."},
		[]string{"provider", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(RelayEmitted)
	reg.MustRegister(RelayDropped)
	reg.MustRegister(RelayConnections)
	reg.MustRegister(MailSent)
}
