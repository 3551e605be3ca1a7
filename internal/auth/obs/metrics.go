// Package obs holds the service's Prometheus metrics.
package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SignInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenauth_signins_total",
			Help: "Sign-in attempts by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	CredentialOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenauth_credential_ops_total",
			Help: "System credential operations by kind and outcome.",
		},
		[]string{"op", "outcome"},
	)
)

var registered = false

// Init registers the metrics with the default registry. Safe to call once.
func Init() {
	if registered {
		return
	}
	prometheus.MustRegister(SignInsTotal, CredentialOpsTotal)
	registered = true
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
