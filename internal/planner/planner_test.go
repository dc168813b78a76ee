package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/random"
	"github.com/verte-zerg/ghosttype/internal/replay"
)

func quietSettings(wpm float64) model.Settings {
	return model.Settings{
		WPM:                wpm,
		MistakeProbability: 0,
		MaxExtraLetters:    model.DefaultExtraLetters,
		Randomness:         model.RandomnessSmooth,
	}
}

var sampleTexts = []string{
	"hello world",
	"The quick brown fox jumps over the lazy dog.",
	"Extraordinarily long words (parenthetical) happen. Then?\n\nNew paragraph!",
	"Ünïcödé wörds and émojis 🎉 mixed in",
	"a",
	"  leading and trailing spaces  ",
}

func TestPlanReconstructsText(t *testing.T) {
	settings := model.DefaultSettings()
	settings.MistakeProbability = model.MaxMistakeProbability
	settings.MaxExtraLetters = model.MaxExtraLetters
	for _, text := range sampleTexts {
		for seed := int64(0); seed < 25; seed++ {
			plan := Generate(text, settings, seed)
			require.Equal(t, text, replay.Simulate(plan.Events), "seed %d", seed)
		}
	}
}

func TestPlanTotalIsSumOfDelays(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		plan := Generate(sampleTexts[2], model.DefaultSettings(), seed)
		sum := 0.0
		for _, ev := range plan.Events {
			sum += ev.Delay()
		}
		assert.InDelta(t, sum, plan.TotalTimeMs, 1e-6)
	}
}

func TestPlanRespectsDelayFloors(t *testing.T) {
	settings := model.DefaultSettings()
	settings.WPM = model.MaxWPM
	settings.Randomness = model.RandomnessHigh
	settings.MistakeProbability = 0.3
	for seed := int64(0); seed < 20; seed++ {
		plan := Generate(sampleTexts[1], settings, seed)
		for _, ev := range plan.Events {
			switch e := ev.(type) {
			case model.TypeEvent:
				assert.GreaterOrEqual(t, e.DelayMs, 20.0)
			case model.DeleteEvent:
				assert.GreaterOrEqual(t, e.DelayMs, 40.0)
			}
		}
	}
}

func TestPlanEmptyText(t *testing.T) {
	plan := Generate("", model.DefaultSettings(), 1)
	assert.Empty(t, plan.Events)
	assert.Zero(t, plan.TotalTimeMs)
}

func TestPlanWithoutMistakesHasNoDeletes(t *testing.T) {
	settings := model.DefaultSettings()
	settings.MistakeProbability = 0
	for seed := int64(0); seed < 10; seed++ {
		plan := Generate(sampleTexts[1], settings, seed)
		types, deletes := plan.Counts()
		assert.Zero(t, deletes)
		assert.Equal(t, len([]rune(sampleTexts[1])), types)
	}
}

func TestPlanSameSeedSamePlan(t *testing.T) {
	a := Generate(sampleTexts[2], model.DefaultSettings(), 42)
	b := Generate(sampleTexts[2], model.DefaultSettings(), 42)
	assert.Equal(t, a, b)
}

func TestPlanTwoLettersAtTwelveWPMStayNearOneSecond(t *testing.T) {
	// 12 wpm is a 1000ms base; the smooth tier jitters by at most 10ms.
	for seed := int64(0); seed < 20; seed++ {
		plan := Generate("hi", quietSettings(12), seed)
		require.Len(t, plan.Events, 2)
		for i, want := range []rune("hi") {
			ev, ok := plan.Events[i].(model.TypeEvent)
			require.True(t, ok)
			assert.Equal(t, want, ev.Char)
			assert.GreaterOrEqual(t, ev.DelayMs, 990.0)
			assert.LessOrEqual(t, ev.DelayMs, 1010.0)
		}
	}
}

func TestPlanUppercaseSurcharge(t *testing.T) {
	plan := New(random.Fixed{F: 0.5}).Plan("A", quietSettings(12))
	require.Len(t, plan.Events, 1)
	// 1000 base + 35 uppercase, smooth noise centred at zero.
	assert.InDelta(t, 1035.0, plan.Events[0].Delay(), 1e-9)
}

func TestPlanThinkingPauseAtStartIsDropped(t *testing.T) {
	settings := quietSettings(60)
	settings.ThinkingPauses = true
	// "(" at index 0 always rolls the opener pause; there is no prior event.
	plan := New(random.Fixed{F: 0}).Plan("(", settings)
	require.Len(t, plan.Events, 1)
	assert.InDelta(t, 200+30-10, plan.Events[0].Delay(), 1e-9)
}

func TestPlanThinkingPauseLandsOnPreviousEvent(t *testing.T) {
	settings := quietSettings(60)
	settings.ThinkingPauses = true
	plan := New(random.Fixed{F: 0}).Plan("a(", settings)
	require.Len(t, plan.Events, 2)
	// 'a': 200 - 10 noise, then +500 from the pause before '('.
	assert.InDelta(t, 690.0, plan.Events[0].Delay(), 1e-9)
	assert.InDelta(t, 220.0, plan.Events[1].Delay(), 1e-9)
}

func TestPlanBurstDiscountsFollowingCharacters(t *testing.T) {
	settings := quietSettings(60)
	settings.BurstTyping = true
	src := &random.Sequence{Values: []float64{
		0.5, 0.1, 0.0, 0.5, // 'a': noise, burst roll, length 3, multiplier 0.4
		0.5, 0.5, 0.5, // three discounted characters
		0.5, 0.9, // 'e': noise, no burst
		0.5, 0.9, // 'f'
	}}
	plan := New(src).Plan("abcdef", settings)
	require.Len(t, plan.Events, 6)
	want := []float64{200, 80, 80, 180, 200, 200}
	for i, ev := range plan.Events {
		assert.InDelta(t, want[i], ev.Delay(), 1e-9, "event %d", i)
	}
}

func TestSummarize(t *testing.T) {
	plan := model.NewPlan([]model.Event{
		model.TypeEvent{Char: 'h', DelayMs: 1000},
		model.TypeEvent{Char: 'x', DelayMs: 1000},
		model.DeleteEvent{DelayMs: 1000},
		model.TypeEvent{Char: 'i', DelayMs: 1000},
		model.TypeEvent{Char: '!', DelayMs: 1000},
		model.TypeEvent{Char: 'z', DelayMs: 1000},
		model.DeleteEvent{DelayMs: 1000},
		model.DeleteEvent{DelayMs: 1000},
		model.TypeEvent{Char: '!', DelayMs: 4000},
	})
	s := Summarize(plan, 3)
	assert.Equal(t, 6, s.Types)
	assert.Equal(t, 3, s.Deletes)
	assert.Equal(t, 2, s.Corrections)
	assert.Equal(t, 12000.0, s.TotalTimeMs)
	assert.InDelta(t, 3.0, s.EffectiveWPM, 1e-9)
	assert.InDelta(t, 0.0, s.DisplayAccuracy, 1e-9)

	empty := Summarize(model.Plan{}, 0)
	assert.Zero(t, empty.EffectiveWPM)
	assert.Zero(t, empty.DisplayAccuracy)
}
