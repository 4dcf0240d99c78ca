package detect

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// On-disk scoring configuration. Thresholds and weights are deployment
// concerns, tuned per community; the aggregator never hard-codes them.
type ConfigFile struct {
	AutoBanThreshold float64            `json:"auto_ban_threshold"`
	ReviewThreshold  float64            `json:"review_threshold"`
	TrainingMode     bool               `json:"training_mode"`
	Weights          map[string]float64 `json:"weights"`
	StopWords        []string           `json:"stop_words"`
}

func LoadConfigJSON(p string) (*ConfigFile, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var cfg ConfigFile
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing detector config: %w", err)
	}
	// thresholds only make sense as a pair: a lone review threshold would
	// leave the auto-ban bound at zero and auto-action everything
	if (cfg.AutoBanThreshold != 0) != (cfg.ReviewThreshold != 0) {
		return nil, fmt.Errorf("auto_ban_threshold and review_threshold must be set together")
	}
	if cfg.ReviewThreshold > cfg.AutoBanThreshold {
		return nil, fmt.Errorf("review threshold (%f) above auto-ban threshold (%f)", cfg.ReviewThreshold, cfg.AutoBanThreshold)
	}
	return &cfg, nil
}
