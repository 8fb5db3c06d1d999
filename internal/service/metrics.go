package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type trackingMetrics struct {
	events           *prometheus.CounterVec
	presenceUpserts  prometheus.Counter
	presenceFailures prometheus.Counter
	reclaimRuns      prometheus.Counter
	reclaimRemoved   prometheus.Counter
	reclaimDuration  prometheus.Observer
}

var (
	trackingMetricsOnce sync.Once
	trackingMetricsInst *trackingMetrics
)

func globalTrackingMetrics() *trackingMetrics {
	trackingMetricsOnce.Do(func() {
		trackingMetricsInst = &trackingMetrics{
			events: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "storepulse",
				Subsystem: "tracking",
				Name:      "events_total",
				Help:      "Product interaction events recorded, labeled by kind",
			}, []string{"kind"}),
			presenceUpserts: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "storepulse",
				Subsystem: "tracking",
				Name:      "presence_upserts_total",
				Help:      "Successful presence upserts",
			}),
			presenceFailures: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "storepulse",
				Subsystem: "tracking",
				Name:      "presence_failures_total",
				Help:      "Presence upserts swallowed after a store failure",
			}),
			reclaimRuns: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "storepulse",
				Subsystem: "reclaim",
				Name:      "runs_total",
				Help:      "Presence sweeps that actually executed a delete",
			}),
			reclaimRemoved: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "storepulse",
				Subsystem: "reclaim",
				Name:      "removed_total",
				Help:      "Stale presence rows removed by sweeps",
			}),
			reclaimDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: "storepulse",
				Subsystem: "reclaim",
				Name:      "duration_seconds",
				Help:      "Duration of presence sweep deletes",
				Buckets:   prometheus.DefBuckets,
			}),
		}
	})
	return trackingMetricsInst
}

func eventsRecorded(kind string) prometheus.Counter {
	return globalTrackingMetrics().events.WithLabelValues(kind)
}

func presenceUpserts() prometheus.Counter  { return globalTrackingMetrics().presenceUpserts }
func presenceFailures() prometheus.Counter { return globalTrackingMetrics().presenceFailures }
func reclaimRuns() prometheus.Counter      { return globalTrackingMetrics().reclaimRuns }
func reclaimRemoved() prometheus.Counter   { return globalTrackingMetrics().reclaimRemoved }

func reclaimTimer() func() {
	timer := prometheus.NewTimer(globalTrackingMetrics().reclaimDuration)
	return func() { timer.ObserveDuration() }
}
