package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_actions_total",
	Help: "Number of moderation actions handled, by kind and outcome",
}, []string{"kind", "outcome"})

var actionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "warden_action_duration_sec",
	Help: "Duration of moderation action handling",
}, []string{"kind"})

var crossTargetDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "warden_cross_target_duration_sec",
	Help: "Duration of cross-target fan-outs",
}, []string{"action"})

var targetsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_targets_skipped_total",
	Help: "Number of targets skipped as unhealthy during fan-outs",
}, []string{"action"})

var dispatchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_dispatch_handler_errors_total",
	Help: "Number of side-effect handler failures",
}, []string{"handler"})

var dispatchFollowUps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_dispatch_follow_ups_total",
	Help: "Number of follow-up requests honored",
}, []string{"handler", "kind"})

var dispatchFollowUpsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_dispatch_follow_ups_dropped_total",
	Help: "Number of follow-up requests dropped because an earlier handler won",
}, []string{"handler"})
