package detect

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedDetector struct {
	name string
	conf float64
}

func (d fixedDetector) Name() string { return d.name }

func (d fixedDetector) Score(ctx context.Context, msg *Message) (float64, error) {
	return d.conf, nil
}

type failingDetector struct{ name string }

func (d failingDetector) Name() string { return d.name }

func (d failingDetector) Score(ctx context.Context, msg *Message) (float64, error) {
	return 100, fmt.Errorf("model unavailable")
}

type hangingDetector struct{ name string }

func (d hangingDetector) Name() string { return d.name }

func (d hangingDetector) Score(ctx context.Context, msg *Message) (float64, error) {
	<-ctx.Done()
	return 100, ctx.Err()
}

type panickingDetector struct{ name string }

func (d panickingDetector) Name() string { return d.name }

func (d panickingDetector) Score(ctx context.Context, msg *Message) (float64, error) {
	panic("index out of range")
}

func aggregatorFixture(detectors ...Detector) *Aggregator {
	return &Aggregator{
		Logger:           slog.Default(),
		Detectors:        detectors,
		Timeout:          50 * time.Millisecond,
		AutoBanThreshold: 85,
		ReviewThreshold:  70,
	}
}

func TestAggregateEqualWeights(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	agg := aggregatorFixture(
		fixedDetector{"a", 100},
		fixedDetector{"b", 0},
		fixedDetector{"c", 50},
	)
	v := agg.Score(ctx, &Message{Text: "x"})
	assert.InDelta(50.0, v.Score, 0.001)
	assert.Equal(DecisionPass, v.Decision)
}

func TestAggregateFailOpen(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// failing and hanging detectors score as zero but keep their weight in
	// the denominator
	agg := aggregatorFixture(
		fixedDetector{"a", 100},
		fixedDetector{"b", 50},
		hangingDetector{"c"},
	)
	v := agg.Score(ctx, &Message{Text: "x"})
	assert.InDelta(50.0, v.Score, 0.001)
	assert.Equal(0.0, v.Scores["c"])

	agg = aggregatorFixture(
		fixedDetector{"a", 100},
		failingDetector{"b"},
		panickingDetector{"c"},
	)
	v = agg.Score(ctx, &Message{Text: "x"})
	assert.InDelta(100.0/3, v.Score, 0.001)
}

func TestAggregateWeights(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	agg := aggregatorFixture(
		fixedDetector{"a", 100},
		fixedDetector{"b", 0},
	)
	agg.Weights = map[string]float64{"a": 3.0}
	// (100*3 + 0*1) / 4
	v := agg.Score(ctx, &Message{Text: "x"})
	assert.InDelta(75.0, v.Score, 0.001)

	// zero weight disables the detector entirely
	agg.Weights = map[string]float64{"b": 0}
	v = agg.Score(ctx, &Message{Text: "x"})
	assert.InDelta(100.0, v.Score, 0.001)
	_, ran := v.Scores["b"]
	assert.False(ran)
}

func TestDecisionThresholds(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cases := []struct {
		conf     float64
		expected Decision
	}{
		{90, DecisionAutoBan},
		{85, DecisionAutoBan}, // inclusive lower bound
		{75, DecisionReview},
		{70, DecisionReview}, // inclusive lower bound
		{60, DecisionPass},
	}
	for _, c := range cases {
		agg := aggregatorFixture(fixedDetector{"a", c.conf})
		v := agg.Score(ctx, &Message{Text: "x"})
		assert.Equal(c.expected, v.Decision, "confidence %v", c.conf)
	}
}

func TestTrainingModeNeverAutoBans(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	agg := aggregatorFixture(fixedDetector{"a", 90})
	agg.TrainingMode = true

	v := agg.Score(ctx, &Message{Text: "x"})
	assert.Equal(DecisionReview, v.Decision)

	agg = aggregatorFixture(fixedDetector{"a", 30})
	agg.TrainingMode = true
	v = agg.Score(ctx, &Message{Text: "x"})
	assert.Equal(DecisionPass, v.Decision)
}

func TestGtubeDetector(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	d := GtubeDetector{}
	conf, err := d.Score(ctx, &Message{Text: "totally normal message"})
	assert.NoError(err)
	assert.Equal(0.0, conf)

	conf, err = d.Score(ctx, &Message{Text: "hi XJS*C4JDBQADN1.NSBN3*2IDNEN*GTUBE-STANDARD-ANTI-UBE-TEST-EMAIL*C.34X"})
	assert.NoError(err)
	assert.Equal(100.0, conf)
}

func TestKeywordDetector(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	d := NewKeywordDetector([]string{"crypto", "airdrop"})

	conf, err := d.Score(ctx, &Message{Text: "lunch anyone?"})
	assert.NoError(err)
	assert.Equal(0.0, conf)

	conf, err = d.Score(ctx, &Message{Text: "free CRYPTO for everyone"})
	assert.NoError(err)
	assert.Equal(60.0, conf)

	// plural form and punctuation still match
	conf, err = d.Score(ctx, &Message{Text: "Crypto! Airdrops!"})
	assert.NoError(err)
	assert.Equal(100.0, conf)
}

func TestLinkFloodDetector(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	d := LinkFloodDetector{MaxLinks: 3}

	conf, err := d.Score(ctx, &Message{Text: "no links here"})
	assert.NoError(err)
	assert.Equal(0.0, conf)

	conf, err = d.Score(ctx, &Message{Text: "see https://a.example https://b.example https://c.example"})
	assert.NoError(err)
	assert.Equal(100.0, conf)

	conf, err = d.Score(ctx, &Message{Text: "just https://one.example"})
	assert.NoError(err)
	assert.InDelta(100.0/3, conf, 0.001)
}
