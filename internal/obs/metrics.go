// Package obs exposes Prometheus metrics for the auth service.
package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for session operations.
const (
	ResultOK       = "ok"
	ResultDenied   = "denied"
	ResultError    = "error"
	ResultInactive = "inactive"
)

var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)

	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Registration attempts by result.",
		},
		[]string{"result"},
	)

	refreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Refresh-token rotations by result.",
		},
		[]string{"result"},
	)

	revocationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_session_revocations_total",
			Help: "Logout calls that revoked a user's sessions.",
		},
	)
)

// Init registers the metrics with the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(loginsTotal, registrationsTotal, refreshesTotal, revocationsTotal)
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func Login(result string)    { loginsTotal.WithLabelValues(result).Inc() }
func Register(result string) { registrationsTotal.WithLabelValues(result).Inc() }
func Refresh(result string)  { refreshesTotal.WithLabelValues(result).Inc() }
func Revocation()            { revocationsTotal.Inc() }
