package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ghosttype/internal/model"
)

func TestValidateSettingsClamps(t *testing.T) {
	s := model.DefaultSettings()
	s.WPM = -50
	s.MistakeProbability = 3
	s.MaxExtraLetters = 99
	s.Randomness = model.Randomness(7)

	got := ValidateSettings(s)
	assert.Equal(t, 10.0, got.WPM)
	assert.Equal(t, 0.5, got.MistakeProbability)
	assert.Equal(t, 10, got.MaxExtraLetters)
	assert.Equal(t, model.RandomnessNormal, got.Randomness)

	s.WPM = 9999
	s.MistakeProbability = -1
	s.MaxExtraLetters = -3
	got = ValidateSettings(s)
	assert.Equal(t, 200.0, got.WPM)
	assert.Equal(t, 0.0, got.MistakeProbability)
	assert.Equal(t, 0, got.MaxExtraLetters)

	s.WPM = math.NaN()
	assert.Equal(t, model.DefaultWPM, ValidateSettings(s).WPM)
}

func TestValidateSettingsIdempotent(t *testing.T) {
	inputs := []model.Settings{
		model.DefaultSettings(),
		{WPM: -50, MistakeProbability: 0.7, MaxExtraLetters: 11, Randomness: -1},
		{WPM: 9999, MistakeProbability: -0.2, MaxExtraLetters: -5, Randomness: model.RandomnessHigh, BurstTyping: true},
		{WPM: 55.5, MistakeProbability: 0.25, MaxExtraLetters: 4, Randomness: model.RandomnessSmooth},
	}
	for _, in := range inputs {
		once := ValidateSettings(in)
		twice := ValidateSettings(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("ValidateSettings not idempotent (-once +twice):\n%s", diff)
		}
		assert.True(t, once.WPM >= model.MinWPM && once.WPM <= model.MaxWPM)
		assert.True(t, once.MistakeProbability >= 0 && once.MistakeProbability <= 0.5)
		assert.True(t, once.MaxExtraLetters >= 0 && once.MaxExtraLetters <= 10)
		assert.True(t, once.Randomness.Valid())
	}
}

func TestResolveSettingsDefaults(t *testing.T) {
	got, ignored := ResolveSettings(PlanConfig{})
	assert.Empty(t, ignored)
	if diff := cmp.Diff(model.DefaultSettings(), got); diff != "" {
		t.Fatalf("unexpected defaults (-want +got):\n%s", diff)
	}
}

func TestResolveSettingsOverlay(t *testing.T) {
	wpm := 500.0
	tier := "wild"
	burst := false
	got, ignored := ResolveSettings(PlanConfig{WPM: &wpm, Randomness: &tier, BurstTyping: &burst})
	require.Len(t, ignored, 1)
	assert.Equal(t, 200.0, got.WPM)
	assert.Equal(t, model.RandomnessNormal, got.Randomness)
	assert.False(t, got.BurstTyping)
	assert.True(t, got.MicroPauses)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Plan.WPM)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[plan]
wpm = 95
randomness = "high"
burst-typing = false

[replay]
batch-size = 8

[log]
level = "loud"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Plan.WPM)
	assert.Equal(t, 95.0, *cfg.Plan.WPM)
	assert.Equal(t, "high", *cfg.Plan.Randomness)
	assert.False(t, *cfg.Plan.BurstTyping)
	assert.Equal(t, 8, *cfg.Replay.BatchSize)

	problems := cfg.Problems()
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "Level")
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, "/tmp/cfg/ghosttype/config.toml", DefaultConfigPath())
	assert.Equal(t, "/tmp/data/ghosttype/runs.db", DefaultDBPath())
	assert.Equal(t, "/tmp/state/ghosttype/logs", DefaultLogDir())
}
