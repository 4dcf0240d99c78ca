package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "detectors.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadConfigJSON(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p := writeConfig(t, `{
		"auto_ban_threshold": 85,
		"review_threshold": 70,
		"training_mode": true,
		"weights": {"keyword": 2.0, "gtube": 0},
		"stop_words": ["crypto", "airdrop"]
	}`)
	cfg, err := LoadConfigJSON(p)
	require.NoError(err)
	assert.Equal(85.0, cfg.AutoBanThreshold)
	assert.Equal(70.0, cfg.ReviewThreshold)
	assert.True(cfg.TrainingMode)
	assert.Equal(2.0, cfg.Weights["keyword"])
	assert.Len(cfg.StopWords, 2)
}

func TestLoadConfigJSONRejectsBadThresholds(t *testing.T) {
	assert := assert.New(t)

	// review above auto-ban
	_, err := LoadConfigJSON(writeConfig(t, `{"auto_ban_threshold": 70, "review_threshold": 85}`))
	assert.Error(err)

	// a lone review threshold would auto-action every message
	_, err = LoadConfigJSON(writeConfig(t, `{"review_threshold": 70}`))
	assert.Error(err)

	// a lone auto-ban threshold is equally half a policy
	_, err = LoadConfigJSON(writeConfig(t, `{"auto_ban_threshold": 85}`))
	assert.Error(err)

	// omitting both keeps the daemon's flag defaults
	cfg, err := LoadConfigJSON(writeConfig(t, `{"weights": {"keyword": 1.5}}`))
	assert.NoError(err)
	assert.Equal(0.0, cfg.AutoBanThreshold)
}
