package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reqforge", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reqforge", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	GenerationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reqforge", Name: "generation_requests_total", Help: "Generation gateway calls by kind (brd|stories) and outcome."},
		[]string{"kind", "outcome"},
	)
	ShareResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reqforge", Name: "share_resolutions_total", Help: "Share token resolutions by outcome (hit|miss)."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(GenerationRequests)
	reg.MustRegister(ShareResolutions)
}
