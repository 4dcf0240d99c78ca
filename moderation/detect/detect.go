// Package detect scores inbound chat messages for spam by fanning the
// message out to independent detectors and combining their confidences into
// one weighted score and a decision.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Inbound message snapshot handed to detectors. Immutable.
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	Username  string
	Text      string
}

// Scores a message with a confidence in [0,100]. Implementations must
// respect ctx cancellation; the aggregator enforces a per-detector timeout.
type Detector interface {
	Name() string
	Score(ctx context.Context, msg *Message) (float64, error)
}

type Decision string

const (
	DecisionPass    Decision = "pass"
	DecisionReview  Decision = "review"
	DecisionAutoBan Decision = "auto-ban"
)

// Outcome of scoring one message.
type Verdict struct {
	Decision Decision
	// Weighted aggregate confidence in [0,100].
	Score float64
	// Per-detector confidences; failed or timed-out detectors appear with 0.
	Scores map[string]float64
}

// Aggregator runs every configured detector concurrently and maps the
// combined score to a decision. Thresholds and weights are supplied by the
// caller, not owned here.
type Aggregator struct {
	Logger    *slog.Logger
	Detectors []Detector
	// Per-detector weight by name; missing entries default to 1.0, and a
	// weight of exactly 0 disables the detector entirely.
	Weights map[string]float64
	// Per-detector scoring budget. Defaults to one second.
	Timeout time.Duration

	AutoBanThreshold float64
	ReviewThreshold  float64
	// When set, nothing is auto-acted: every message at or above the
	// review threshold goes to manual review.
	TrainingMode bool
}

type detectorOutcome struct {
	name       string
	confidence float64
	weight     float64
	err        error
}

// Score runs all detectors and blocks until each completes or times out
// (join barrier), then returns the verdict. Detector failure or timeout is
// fail-open: it contributes confidence 0 at its configured weight, so one
// broken detector can never silently over-block traffic.
func (a *Aggregator) Score(ctx context.Context, msg *Message) Verdict {
	start := time.Now()
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	results := make(chan detectorOutcome, len(a.Detectors))
	launched := 0
	for _, d := range a.Detectors {
		w := a.weightFor(d.Name())
		if w == 0 {
			continue
		}
		launched++
		go func(d Detector, w float64) {
			dctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			out := detectorOutcome{name: d.Name(), weight: w}
			defer func() {
				if r := recover(); r != nil {
					out.err = fmt.Errorf("detector panicked: %v", r)
					out.confidence = 0
					results <- out
				}
			}()
			conf, err := d.Score(dctx, msg)
			if err == nil {
				err = dctx.Err()
			}
			if err != nil {
				out.err = err
				conf = 0
			}
			if conf < 0 {
				conf = 0
			} else if conf > 100 {
				conf = 100
			}
			out.confidence = conf
			results <- out
		}(d, w)
	}

	verdict := Verdict{Scores: make(map[string]float64, launched)}
	var weightedSum, weightTotal float64
	for i := 0; i < launched; i++ {
		out := <-results
		if out.err != nil {
			a.Logger.Warn("detector failed, scoring as zero", "detector", out.name, "err", out.err)
			detectorErrors.WithLabelValues(out.name).Inc()
		}
		verdict.Scores[out.name] = out.confidence
		weightedSum += out.confidence * out.weight
		weightTotal += out.weight
	}
	if weightTotal > 0 {
		verdict.Score = weightedSum / weightTotal
	}
	verdict.Decision = a.decide(verdict.Score)

	scoreDuration.Observe(time.Since(start).Seconds())
	decisionCount.WithLabelValues(string(verdict.Decision)).Inc()
	a.Logger.Debug("scored message", "chatID", msg.ChatID, "userID", msg.UserID, "score", verdict.Score, "decision", verdict.Decision)
	return verdict
}

// Threshold boundaries are inclusive toward the higher-severity bucket.
func (a *Aggregator) decide(score float64) Decision {
	if a.TrainingMode {
		if score >= a.ReviewThreshold {
			return DecisionReview
		}
		return DecisionPass
	}
	switch {
	case score >= a.AutoBanThreshold:
		return DecisionAutoBan
	case score >= a.ReviewThreshold:
		return DecisionReview
	default:
		return DecisionPass
	}
}

func (a *Aggregator) weightFor(name string) float64 {
	if a.Weights == nil {
		return 1.0
	}
	w, ok := a.Weights[name]
	if !ok {
		return 1.0
	}
	if w < 0 {
		return 0
	}
	return w
}
