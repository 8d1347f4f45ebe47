package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/calculator"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/strategy"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, strategy.PresetCore, cfg.Weinstein.Preset)
	assert.Equal(t, 3, cfg.Preset().Version)
	assert.Equal(t, []int{200, 44, 21}, cfg.Ranking.EMASpans)
	assert.Equal(t, 50, cfg.Screening.BatchSize)
	assert.True(t, *cfg.Screening.ReleaseBetween)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL())

	sc, err := cfg.Screener()
	require.NoError(t, err)
	assert.Equal(t, time.Friday, sc.WeekAnchor)
	assert.Equal(t, "Asia/Kolkata", sc.Location.String())
}

func TestLoadPresetOverlay(t *testing.T) {
	path := writeFile(t, "screener.yaml", `
weinstein:
  preset: strict
  thresholds:
    volume_multiplier: 1.5
  scoring:
    condition_points:
      liquidity: 0
ranking:
  ema_kind: dema
  ema_spans: [50, 20]
  crossover_direction: Both
  rsi_filter_range: {lo: 30, hi: 70}
screening:
  batch_size: 25
  release_between_batches: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	p := cfg.Preset()
	assert.Equal(t, strategy.PresetStrict, p.Name)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, 1.5, p.Thresholds.VolumeMultiplier)
	assert.Equal(t, 0.01, p.Thresholds.BreakoutMargin, "untouched thresholds come from the preset")
	assert.Len(t, p.Required, 8)
	assert.Equal(t, 0.0, p.Scoring.ConditionPoints[model.CondLiquidity])
	assert.Equal(t, 20.0, p.Scoring.ConditionPoints[model.CondStage2])

	assert.Equal(t, calculator.KindDEMA, cfg.Ranking.EMAKind)
	assert.Equal(t, calculator.Both, cfg.Ranking.Direction)
	assert.Equal(t, []int{50, 20}, cfg.Ranking.EMASpans)
	assert.Equal(t, 12, cfg.Ranking.MACDFast)
	require.NotNil(t, cfg.Ranking.RSIFilter)
	assert.Equal(t, 70.0, cfg.Ranking.RSIFilter.Hi)
	assert.Equal(t, 25, cfg.Screening.BatchSize)
	assert.False(t, *cfg.Screening.ReleaseBetween)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "screener.toml", `
[data_source]
provider = "sqlite"

[weinstein]
preset = "momentum"

[weinstein.thresholds]
max_extension = 0.3

[market]
week_anchor = "thursday"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.DataSource.Provider)
	assert.Equal(t, strategy.PresetMomentum, cfg.Preset().Name)
	assert.Equal(t, 0.3, cfg.Preset().Thresholds.MaxExtension)
	assert.True(t, cfg.Preset().Thresholds.MACDRequireHistogram)

	sc, err := cfg.Screener()
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, sc.WeekAnchor)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCREENER_PRESET", "strict")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SCREENER_WORKERS", "8")

	cfg, err := Load(writeFile(t, "c.yaml", "weinstein:\n  preset: core\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, strategy.PresetStrict, cfg.Preset().Name)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 8, cfg.Screening.Workers)

	t.Setenv("SCREENER_BATCH_SIZE", "many")
	_, err = Load(writeFile(t, "c.yaml", ""))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownPreset(t *testing.T) {
	_, err := Load(writeFile(t, "c.yaml", "weinstein:\n  preset: aggressive\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"provider", "data_source:\n  provider: ftp\n"},
		{"timezone", "market:\n  timezone: Mars/Olympus\n"},
		{"anchor", "market:\n  week_anchor: someday\n"},
		{"macd order", "ranking:\n  macd_fast: 30\n"},
		{"redis addr", "cache:\n  backend: redis\n"},
		{"telegram chat", "telegram:\n  bot_token: abc\n"},
		{"workers", "screening:\n  workers: -1\n"},
		{"unknown condition", "weinstein:\n  required: [moon_phase]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, "c.yaml", tt.body))
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}
