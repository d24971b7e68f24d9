package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the fulfillment engine.
type Metrics struct {
	RequestsCreated    prometheus.Counter
	RequestsFulfilled  prometheus.Counter
	RequestsExpired    prometheus.Counter
	ResponsesRecorded  prometheus.Counter
	ResponsesAdvanced  *prometheus.CounterVec
	CapacityRejections prometheus.Counter
	SweepRuns          prometheus.Counter
	SweepDuration      prometheus.Histogram
}

// New creates and registers all engine metrics against reg. Tests pass a
// fresh registry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodconnect_requests_created_total",
			Help: "Total number of blood requests created",
		}),
		RequestsFulfilled: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodconnect_requests_fulfilled_total",
			Help: "Total number of requests that reached fulfilled",
		}),
		RequestsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodconnect_requests_expired_total",
			Help: "Total number of requests expired by the sweeper",
		}),
		ResponsesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodconnect_donor_responses_total",
			Help: "Total number of donor responses recorded",
		}),
		ResponsesAdvanced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodconnect_responses_advanced_total",
			Help: "Total number of response status transitions, by target status",
		}, []string{"target"}),
		CapacityRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodconnect_capacity_rejections_total",
			Help: "Total number of transitions rejected by the capacity arbiter",
		}),
		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodconnect_sweep_runs_total",
			Help: "Total number of lifecycle sweep executions",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodconnect_sweep_duration_seconds",
			Help:    "Duration of lifecycle sweep executions",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
