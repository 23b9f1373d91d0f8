// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the user service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// RequestBuckets defines histogram buckets suited for interactive API
// latencies, from 5ms up to 10s. Login requests sit toward the high end
// because password verification is deliberately slow.
var RequestBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usersvc_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "usersvc_request_duration_seconds",
			Help:    "Request duration",
			Buckets: RequestBuckets,
		},
		[]string{"method", "route"},
	)

	// RequestsInFlight tracks the number of requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "usersvc_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	// RegistrationsTotal counts registration attempts by outcome:
	// created, duplicate_email, duplicate_username, or error.
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usersvc_registrations_total",
			Help: "Registration attempts",
		},
		[]string{"outcome"},
	)

	// LoginsTotal counts login attempts by outcome: success, failure, or error.
	// Failure covers both unknown identifiers and wrong passwords; the two are
	// indistinguishable from the outside and must stay that way here too.
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usersvc_logins_total",
			Help: "Login attempts",
		},
		[]string{"outcome"},
	)

	// TokenAuthenticationsTotal counts bearer-token resolution outcomes:
	// authenticated, rejected, or anonymous.
	TokenAuthenticationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usersvc_token_authentications_total",
			Help: "Bearer token authentication outcomes",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		RegistrationsTotal,
		LoginsTotal,
		TokenAuthenticationsTotal,
	)
}
