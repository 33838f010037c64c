package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPartyConfig(t *testing.T) {
	cfg := DefaultPartyConfig()
	assert.Equal(t, "grok-4", cfg.DefaultModel)
	assert.Equal(t, "grok-4", cfg.DecisionModel)
	assert.Equal(t, "friendly", cfg.Mood)
	assert.Equal(t, 12, cfg.HistoryWindow)

	engineCfg, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, engineCfg.RetryBackoff)
	assert.Equal(t, 2*time.Second, engineCfg.TurnDelay)
	assert.Equal(t, 0.8, engineCfg.ReplyTemperature)
	assert.Equal(t, 0.3, engineCfg.SelectionTemperature)
}

func TestEngineConfigDurationParsing(t *testing.T) {
	tests := []struct {
		name         string
		retryBackoff string
		turnDelay    string
		wantBackoff  time.Duration
		wantDelay    time.Duration
		wantErr      string
	}{
		{
			name:         "valid durations",
			retryBackoff: "250ms",
			turnDelay:    "1s",
			wantBackoff:  250 * time.Millisecond,
			wantDelay:    time.Second,
		},
		{
			name:      "empty means zero",
			wantDelay: 0,
		},
		{
			name:         "garbage backoff",
			retryBackoff: "soon",
			wantErr:      "invalid retry_backoff",
		},
		{
			name:      "negative delay",
			turnDelay: "-2s",
			wantErr:   "turn_delay must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := PartyConfig{RetryBackoff: tt.retryBackoff, TurnDelay: tt.turnDelay}
			engineCfg, err := cfg.EngineConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBackoff, engineCfg.RetryBackoff)
			assert.Equal(t, tt.wantDelay, engineCfg.TurnDelay)
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "xai-from-env")
	assert.Equal(t, "xai-from-flag", resolveAPIKey("xai-from-flag"), "flag overrides environment")
	assert.Equal(t, "xai-from-env", resolveAPIKey(""))

	t.Setenv(apiKeyEnvVar, "")
	assert.Equal(t, "", resolveAPIKey(""))
}
