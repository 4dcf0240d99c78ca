package detect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var scoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "warden_detect_score_duration_sec",
	Help: "Total duration of message scoring (all detectors joined)",
})

var detectorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_detect_detector_errors_total",
	Help: "Number of detector failures or timeouts (scored as zero)",
}, []string{"detector"})

var decisionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_detect_decisions_total",
	Help: "Number of scoring decisions, by outcome",
}, []string{"decision"})
