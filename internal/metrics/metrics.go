package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/acm-sigapp/club-backend/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Subscription metrics

	SubscriptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsite",
		Name:      "subscriptions_total",
		Help:      "Subscription submissions, by result.",
	}, []string{"result"})

	VerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsite",
		Name:      "verifications_total",
		Help:      "Verification attempts, by result.",
	}, []string{"result"})

	// Delivery metrics

	DeliveryAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsite",
		Name:      "delivery_attempts_total",
		Help:      "Individual delivery attempts, by transport and result.",
	}, []string{"transport", "result"})

	DeliveryOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsite",
		Name:      "delivery_outcome_total",
		Help:      "Terminal delivery outcomes after walking the transport list.",
	}, []string{"outcome"})

	// Sweeper metrics

	SweeperPrunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clubsite",
		Name:      "sweeper_pruned_total",
		Help:      "Expired pending records deleted by the sweeper.",
	})

	SweeperCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clubsite",
		Name:      "sweeper_cycle_duration_seconds",
		Help:      "Time taken for one sweep cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clubsite",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubsite",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		SubscriptionsTotal,
		VerificationsTotal,
		DeliveryAttempts,
		DeliveryOutcomes,
		SweeperPrunedTotal,
		SweeperCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves Prometheus metrics plus liveness and readiness probes on
// a dedicated port, away from the public API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
