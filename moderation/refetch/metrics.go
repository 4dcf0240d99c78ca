package refetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fetchEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_refetch_enqueued_total",
	Help: "Number of fetch requests accepted onto the queue",
}, []string{"kind"})

var fetchDuplicates = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_refetch_duplicates_total",
	Help: "Number of fetch requests rejected because an equal key was in flight",
}, []string{"kind"})

var fetchDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_refetch_dropped_total",
	Help: "Number of queued fetch requests evicted on overflow",
}, []string{"kind"})

var fetchProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_refetch_processed_total",
	Help: "Number of fetch requests completed successfully",
}, []string{"kind"})

var fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_refetch_errors_total",
	Help: "Number of fetch requests which failed or panicked",
}, []string{"kind"})

var fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "warden_refetch_duration_sec",
	Help: "Duration of individual fetch attempts",
}, []string{"kind"})

var fetchQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_refetch_queue_depth",
	Help: "Number of queued-but-not-started fetch requests",
})
