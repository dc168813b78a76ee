package config

import (
	"math"

	"github.com/verte-zerg/ghosttype/internal/model"
)

// ValidateSettings clamps every numeric field into its bound and maps an
// unknown randomness tier to the default. It never fails and is idempotent.
func ValidateSettings(s model.Settings) model.Settings {
	s.WPM = clampFloat(s.WPM, model.MinWPM, model.MaxWPM, model.DefaultWPM)
	s.MistakeProbability = clampFloat(s.MistakeProbability, model.MinMistakeProbability, model.MaxMistakeProbability, model.DefaultMistakeProbability)
	s.MaxExtraLetters = clampInt(s.MaxExtraLetters, model.MinExtraLetters, model.MaxExtraLetters)
	if !s.Randomness.Valid() {
		s.Randomness = model.DefaultRandomness
	}
	return s
}

// ResolveSettings overlays the configured values onto the defaults and
// validates the result. The second return value lists ignored values.
func ResolveSettings(pc PlanConfig) (model.Settings, []error) {
	s := model.DefaultSettings()
	var ignored []error
	if pc.WPM != nil {
		s.WPM = *pc.WPM
	}
	if pc.MistakeProbability != nil {
		s.MistakeProbability = *pc.MistakeProbability
	}
	if pc.MaxExtraLetters != nil {
		s.MaxExtraLetters = *pc.MaxExtraLetters
	}
	if pc.Randomness != nil {
		tier, err := model.ParseRandomness(*pc.Randomness)
		if err != nil {
			ignored = append(ignored, err)
		}
		s.Randomness = tier
	}
	applyBool(&s.PunctuationPauses, pc.PunctuationPauses)
	applyBool(&s.LongWordPauses, pc.LongWordPauses)
	applyBool(&s.BurstTyping, pc.BurstTyping)
	applyBool(&s.MicroPauses, pc.MicroPauses)
	applyBool(&s.ThinkingPauses, pc.ThinkingPauses)
	applyBool(&s.TimeBasedSpeed, pc.TimeBasedSpeed)
	applyBool(&s.TimeBasedMistakes, pc.TimeBasedMistakes)
	return ValidateSettings(s), ignored
}

func applyBool(target, value *bool) {
	if value != nil {
		*target = *value
	}
}

func clampFloat(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Min(hi, math.Max(lo, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
