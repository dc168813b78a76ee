package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/random"
)

func TestWordDifficulty(t *testing.T) {
	cases := map[string]int{
		"":                0,
		"cat":             0,
		"planet":          1,
		"beautiful":       2,
		"internationally": 4,
		"quiz":            2,
		"McDonald":        3,
		"don't":           1,
		"Zzzzzzzzzzzzzzz": 10,
	}
	for word, want := range cases {
		assert.Equal(t, want, WordDifficulty(word), word)
	}
}

func TestSpeedCurve(t *testing.T) {
	assert.Equal(t, 1.15, SpeedCurve(0))
	assert.Equal(t, 1.0, SpeedCurve(0.1))
	assert.Equal(t, 1.0, SpeedCurve(0.2))
	assert.Equal(t, 0.95, SpeedCurve(0.5))
	assert.Equal(t, 1.0, SpeedCurve(0.9))
	assert.Equal(t, 1.05, SpeedCurve(0.99))
}

func TestMistakeProbabilityCurve(t *testing.T) {
	assert.InDelta(t, 0.08, MistakeProbabilityCurve(0.05, 0.1), 1e-12)
	assert.InDelta(t, 0.1, MistakeProbabilityCurve(0.2, 0.1), 1e-12)
	assert.InDelta(t, 0.12, MistakeProbabilityCurve(0.5, 0.1), 1e-12)
	assert.InDelta(t, 0.1, MistakeProbabilityCurve(0.8, 0.1), 1e-12)
	assert.InDelta(t, 0.09, MistakeProbabilityCurve(0.95, 0.1), 1e-12)
}

func TestWordBoundaries(t *testing.T) {
	text := []rune("ab cd\nef")
	assert.True(t, IsWordStart(text, 0))
	assert.False(t, IsWordStart(text, 1))
	assert.True(t, IsWordStart(text, 3))
	assert.True(t, IsWordStart(text, 6))
	assert.True(t, IsWordEnd(text, 1))
	assert.False(t, IsWordEnd(text, 3))
	assert.True(t, IsWordEnd(text, 7))
	assert.False(t, IsWordStart(text, 8))
	assert.Equal(t, "cd", WordAt(text, 4))
	assert.Equal(t, "", WordAt(text, 2))
}

func TestMicroPauseOnlyAtWordStarts(t *testing.T) {
	s := model.Settings{MicroPauses: true}
	text := []rune("ab cd")
	always := random.Fixed{F: 0}
	assert.InDelta(t, 100.0, MicroPause(always, s, text, 3), 1e-9)
	assert.Zero(t, MicroPause(always, s, text, 4))
	assert.Zero(t, MicroPause(random.Fixed{F: 0.05}, s, text, 0))

	s.MicroPauses = false
	assert.Zero(t, MicroPause(always, s, text, 0))
}

func TestThinkingPausePriority(t *testing.T) {
	s := model.Settings{ThinkingPauses: true}

	// An opener rolls at 30%; a draw of 0.25 passes.
	assert.InDelta(t, 500+0.25*1000, ThinkingPause(random.Fixed{F: 0.25}, s, []rune(`say "hi"`), 4), 1e-9)

	// A new sentence rolls at 20%; 0.25 does not pass.
	assert.Zero(t, ThinkingPause(random.Fixed{F: 0.25}, s, []rune("Ok. Then"), 4))
	assert.InDelta(t, 510.0, ThinkingPause(random.Fixed{F: 0.01}, s, []rune("Ok. Then"), 4), 1e-9)

	// A long word rolls at 15%.
	long := []rune("an incomprehensible word")
	assert.Zero(t, ThinkingPause(random.Fixed{F: 0.16}, s, long, 3))
	assert.InDelta(t, 510.0, ThinkingPause(random.Fixed{F: 0.01}, s, long, 3), 1e-9)
	assert.Zero(t, ThinkingPause(random.Fixed{F: 0.01}, s, long, 4))

	assert.Zero(t, ThinkingPause(random.Fixed{F: 0}, s, []rune("plain"), 0))

	s.ThinkingPauses = false
	assert.Zero(t, ThinkingPause(random.Fixed{F: 0}, s, []rune("(x)"), 0))
}

func TestStartBurst(t *testing.T) {
	s := model.Settings{BurstTyping: true}
	n, mult, ok := StartBurst(random.Fixed{F: 0.1, I: 1}, s)
	assert.True(t, ok)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 0.32, mult, 1e-9)

	_, mult, ok = StartBurst(random.Fixed{F: 0.2}, s)
	assert.False(t, ok)
	assert.Equal(t, 1.0, mult)

	s.BurstTyping = false
	_, _, ok = StartBurst(random.Fixed{F: 0}, s)
	assert.False(t, ok)
}
