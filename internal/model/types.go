// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Randomness selects how much noise is layered onto each delay.
type Randomness int

const (
	RandomnessSmooth Randomness = iota
	RandomnessNormal
	RandomnessHigh
)

// String returns the tier name.
func (r Randomness) String() string {
	switch r {
	case RandomnessSmooth:
		return "smooth"
	case RandomnessNormal:
		return "normal"
	case RandomnessHigh:
		return "high"
	default:
		return fmt.Sprintf("randomness(%d)", int(r))
	}
}

// Valid reports whether r is a known tier.
func (r Randomness) Valid() bool {
	return r >= RandomnessSmooth && r <= RandomnessHigh
}

// ParseRandomness accepts a tier name or its numeric level.
func ParseRandomness(s string) (Randomness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "smooth", "0":
		return RandomnessSmooth, nil
	case "normal", "1", "":
		return RandomnessNormal, nil
	case "high", "2":
		return RandomnessHigh, nil
	}
	return RandomnessNormal, fmt.Errorf("unknown randomness %q (want smooth, normal or high)", s)
}

// Settings defines planning settings. Values are expected to be clamped
// with config.ValidateSettings before planning.
type Settings struct {
	WPM                float64
	MistakeProbability float64
	MaxExtraLetters    int
	Randomness         Randomness

	PunctuationPauses bool
	LongWordPauses    bool
	BurstTyping       bool
	MicroPauses       bool
	ThinkingPauses    bool
	TimeBasedSpeed    bool
	TimeBasedMistakes bool
}

// Setting bounds and defaults.
const (
	MinWPM     = 10.0
	MaxWPM     = 200.0
	DefaultWPM = 80.0

	MinMistakeProbability     = 0.0
	MaxMistakeProbability     = 0.5
	DefaultMistakeProbability = 0.02

	MinExtraLetters     = 0
	MaxExtraLetters     = 10
	DefaultExtraLetters = 2

	DefaultRandomness = RandomnessNormal
)

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		WPM:                DefaultWPM,
		MistakeProbability: DefaultMistakeProbability,
		MaxExtraLetters:    DefaultExtraLetters,
		Randomness:         DefaultRandomness,
		PunctuationPauses:  true,
		LongWordPauses:     true,
		BurstTyping:        true,
		MicroPauses:        true,
		ThinkingPauses:     true,
		TimeBasedSpeed:     true,
		TimeBasedMistakes:  true,
	}
}

// RunStatus describes how a replay ended.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunStopped   RunStatus = "stopped"
	RunFailed    RunStatus = "failed"
)

// RunStats captures a finished replay of a plan.
type RunStats struct {
	ID          string
	StartedAt   time.Time
	EndedAt     time.Time
	Target      string
	Settings    Settings
	Seed        int64
	TextLength  int
	Events      int
	Consumed    int
	Deletes     int
	PlannedMs   float64
	ElapsedMs   int64
	Status      RunStatus
	ErrorDetail string
}

// RunCharStats stores per-character counts for a run.
type RunCharStats struct {
	Char    string
	Typed   int
	Deleted int
}

// RunAggregate summarizes a run for reporting.
type RunAggregate struct {
	ID         string
	EndedAt    time.Time
	Target     string
	WPM        float64
	TextLength int
	Events     int
	Consumed   int
	Deletes    int
	PlannedMs  float64
	ElapsedMs  int64
	Status     RunStatus
}

// HistoryFilter defines filters for listing runs.
type HistoryFilter struct {
	Target string
	Since  *time.Time
	Last   int
}
