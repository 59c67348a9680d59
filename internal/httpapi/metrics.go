package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clipguard_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clipguard_http_throttled_total",
			Help: "Analyze requests refused by the rate limiter or concurrency cap",
		}, []string{"reason"}),
	}
}
