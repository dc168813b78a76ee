// Package behavior provides position-dependent pacing modulators.
package behavior

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/random"
	"github.com/verte-zerg/ghosttype/internal/timing"
)

const (
	microPauseChance = 0.05
	burstChance      = 0.15

	openerThinkChance   = 0.30
	sentenceThinkChance = 0.20
	longWordThinkChance = 0.15
	longWordThinkLength = 10
)

const openers = "([{\"'"

const rareLetters = "qxz"

// BurstSettleDelay is added once a burst run is exhausted.
const BurstSettleDelay = 100.0

// IsWhitespace reports whether r separates words.
func IsWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// IsWordStart reports whether i begins a word.
func IsWordStart(text []rune, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	return i == 0 || IsWhitespace(text[i-1])
}

// IsWordEnd reports whether i is the last character of a word.
func IsWordEnd(text []rune, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	return i == len(text)-1 || IsWhitespace(text[i+1])
}

// WordAt returns the whitespace-delimited word containing i.
func WordAt(text []rune, i int) string {
	if i < 0 || i >= len(text) || IsWhitespace(text[i]) {
		return ""
	}
	start, end := i, i
	for start > 0 && !IsWhitespace(text[start-1]) {
		start--
	}
	for end < len(text) && !IsWhitespace(text[end]) {
		end++
	}
	return string(text[start:end])
}

// Progress returns the fractional position of i through n characters.
func Progress(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(i) / float64(n)
}

// WordDifficulty scores a word in [0,10] from its length, rare letters,
// mixed case and punctuation.
func WordDifficulty(word string) int {
	score := 0
	n := len([]rune(word))
	switch {
	case n > 12:
		score += 4
	case n > 8:
		score += 2
	case n > 5:
		score++
	}

	hasUpper, hasLower := false, false
	for _, r := range word {
		if strings.ContainsRune(rareLetters, unicode.ToLower(r)) {
			score++
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
		if timing.IsSymbol(r) {
			score++
		}
	}
	if hasUpper && hasLower {
		score += 2
	}
	if score > 10 {
		score = 10
	}
	return score
}

// SpeedCurve returns the delay multiplier for warm-up and fatigue.
func SpeedCurve(progress float64) float64 {
	switch {
	case progress < 0.05:
		return 1.15
	case progress > 0.2 && progress < 0.8:
		return 0.95
	case progress > 0.95:
		return 1.05
	default:
		return 1.0
	}
}

// MistakeProbabilityCurve scales the base mistake probability by progress.
func MistakeProbabilityCurve(progress, base float64) float64 {
	switch {
	case progress < 0.1:
		return base * 0.8
	case progress > 0.3 && progress < 0.7:
		return base * 1.2
	case progress > 0.9:
		return base * 0.9
	default:
		return base
	}
}

// MicroPause returns a short pause for word starts, or zero.
func MicroPause(src random.Source, settings model.Settings, text []rune, i int) float64 {
	if !settings.MicroPauses || !IsWordStart(text, i) {
		return 0
	}
	if !random.Chance(src, microPauseChance) {
		return 0
	}
	return random.Uniform(src, 100, 300)
}

// ThinkingPause returns a hesitation felt before acting on position i, or
// zero. Only the first applicable trigger is rolled.
func ThinkingPause(src random.Source, settings model.Settings, text []rune, i int) float64 {
	if !settings.ThinkingPauses || i < 0 || i >= len(text) {
		return 0
	}
	var chance float64
	switch {
	case strings.ContainsRune(openers, text[i]):
		chance = openerThinkChance
	case timing.StartsSentence(text, i):
		chance = sentenceThinkChance
	case IsWordStart(text, i) && timing.UpcomingWordLength(text, i) > longWordThinkLength:
		chance = longWordThinkChance
	default:
		return 0
	}
	if !random.Chance(src, chance) {
		return 0
	}
	return random.Uniform(src, 500, 1500)
}

// StartBurst rolls for a new burst run and returns its length and delay
// multiplier.
func StartBurst(src random.Source, settings model.Settings) (remaining int, multiplier float64, ok bool) {
	if !settings.BurstTyping || !random.Chance(src, burstChance) {
		return 0, 1, false
	}
	return random.IntRange(src, 3, 5), random.Uniform(src, 0.3, 0.5), true
}
