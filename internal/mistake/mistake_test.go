package mistake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/random"
	"github.com/verte-zerg/ghosttype/internal/timing"
)

func applyEvents(events []model.Event) string {
	var buf []rune
	for _, ev := range events {
		switch e := ev.(type) {
		case model.TypeEvent:
			buf = append(buf, e.Char)
		case model.DeleteEvent:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
			}
		}
	}
	return string(buf)
}

func testSettings() model.Settings {
	s := model.DefaultSettings()
	s.Randomness = model.RandomnessSmooth
	return s
}

func TestChooseWrongCharUsesAdjacency(t *testing.T) {
	got := ChooseWrongChar(random.Fixed{I: 0}, 'a')
	assert.Contains(t, []rune{'q', 'w', 's', 'z'}, got)
	assert.Equal(t, 'q', got)

	src := random.New(5)
	for i := 0; i < 200; i++ {
		assert.Contains(t, Neighbors('a'), ChooseWrongChar(src, 'a'))
	}
}

func TestChooseWrongCharMatchesCase(t *testing.T) {
	got := ChooseWrongChar(random.Fixed{I: 2}, 'S')
	assert.Equal(t, 'E', got)
}

func TestChooseWrongCharNonLetter(t *testing.T) {
	got := ChooseWrongChar(random.Fixed{I: 3}, '7')
	assert.Equal(t, 'd', got)
}

func TestAdjacencyCoversAlphabet(t *testing.T) {
	assert.Len(t, keyboardNeighbors, 26)
	for r := 'a'; r <= 'z'; r++ {
		assert.NotEmpty(t, Neighbors(r), string(r))
	}
}

func TestExtraLettersWeighting(t *testing.T) {
	assert.Equal(t, 0, ExtraLetters(random.Fixed{F: 0.1}, 5))
	assert.Equal(t, 1, ExtraLetters(random.Fixed{F: 0.5}, 5))
	assert.Equal(t, 2, ExtraLetters(random.Fixed{F: 0.8}, 5))
	assert.Equal(t, 3, ExtraLetters(random.Fixed{F: 0.95, I: 0}, 5))
	assert.Equal(t, 5, ExtraLetters(random.Fixed{F: 0.95, I: 9}, 5))
	assert.Equal(t, 1, ExtraLetters(random.Fixed{F: 0.8}, 1))
	assert.Equal(t, 0, ExtraLetters(random.Fixed{F: 0.99}, 0))
}

func TestStandardSequenceShape(t *testing.T) {
	text := []rune("hello")
	// 0.5 selects one extra letter; the rest of the draws are irrelevant here.
	m := New(testSettings(), random.Fixed{F: 0.5, I: 0})
	seq := m.Standard(text, 1)

	require.Equal(t, 2, seq.ResumeIndex)
	require.Len(t, seq.Events, 6)
	assert.Equal(t, 'w', seq.Events[0].(model.TypeEvent).Char)
	assert.Equal(t, 'l', seq.Events[1].(model.TypeEvent).Char)
	assert.IsType(t, model.DeleteEvent{}, seq.Events[2])
	assert.IsType(t, model.DeleteEvent{}, seq.Events[3])
	assert.Equal(t, 'e', seq.Events[4].(model.TypeEvent).Char)
	assert.Equal(t, 'l', seq.Events[5].(model.TypeEvent).Char)
	assert.Equal(t, "el", applyEvents(seq.Events))
	assert.Greater(t, seq.Events[1].Delay(), seq.Events[5].Delay(), "realization pause lands on the last typed event")
}

func TestStandardClampsExtraToText(t *testing.T) {
	text := []rune("ab")
	s := testSettings()
	s.MaxExtraLetters = 10
	m := New(s, random.Fixed{F: 0.99, I: 7})
	seq := m.Standard(text, 1)
	assert.Equal(t, 1, seq.ResumeIndex)
	assert.Equal(t, "b", applyEvents(seq.Events))
}

func TestTransposition(t *testing.T) {
	m := New(testSettings(), random.Fixed{F: 0.5})
	seq, ok := m.Transposition([]rune("teh cat"), 0)
	require.True(t, ok)
	assert.True(t, seq.Transposed)
	assert.Equal(t, 1, seq.ResumeIndex)
	require.Len(t, seq.Events, 6)
	assert.Equal(t, 'e', seq.Events[0].(model.TypeEvent).Char)
	assert.Equal(t, 't', seq.Events[1].(model.TypeEvent).Char)
	assert.Equal(t, "te", applyEvents(seq.Events))
	assert.Greater(t, seq.Events[1].Delay(), seq.Events[4].Delay())

	_, ok = m.Transposition([]rune("a b"), 0)
	assert.False(t, ok)
	_, ok = m.Transposition([]rune("a"), 0)
	assert.False(t, ok)
	_, ok = m.Transposition([]rune("a\nb"), 0)
	assert.False(t, ok)
}

func TestProbability(t *testing.T) {
	s := testSettings()
	s.MistakeProbability = 0.1
	s.TimeBasedMistakes = false
	m := New(s, random.Fixed{})
	text := []rune("abc def")

	assert.InDelta(t, 0.1, m.Probability(text, 0), 1e-12)
	assert.InDelta(t, 0.13, m.Probability(text, 1), 1e-12)
	assert.Zero(t, m.Probability(text, 3))

	s.TimeBasedMistakes = true
	m = New(s, random.Fixed{})
	assert.InDelta(t, 0.08, m.Probability(text, 0), 1e-12)
}

func TestAttemptNeverFiresAtZeroProbability(t *testing.T) {
	s := testSettings()
	s.MistakeProbability = 0
	m := New(s, random.Fixed{F: 0})
	for i := range []rune("some text") {
		_, ok := m.Attempt([]rune("some text"), i)
		assert.False(t, ok)
	}
}

func TestAttemptPrefersTranspositionAtWordStart(t *testing.T) {
	s := testSettings()
	s.MistakeProbability = 0.5
	m := New(s, random.Fixed{F: 0})
	seq, ok := m.Attempt([]rune("abc"), 0)
	require.True(t, ok)
	assert.True(t, seq.Transposed)

	seq, ok = m.Attempt([]rune("abc"), 1)
	require.True(t, ok)
	assert.False(t, seq.Transposed)
}

func TestSequenceDelaysRespectFloors(t *testing.T) {
	s := testSettings()
	s.WPM = 200
	s.Randomness = model.RandomnessHigh
	s.MistakeProbability = 0.5
	m := New(s, random.New(99))
	text := []rune("the quick brown fox jumps over the lazy dog")
	for i := range text {
		seq, ok := m.Attempt(text, i)
		if !ok {
			continue
		}
		for _, ev := range seq.Events {
			switch e := ev.(type) {
			case model.TypeEvent:
				assert.GreaterOrEqual(t, e.DelayMs, timing.MinEventDelay)
			case model.DeleteEvent:
				assert.GreaterOrEqual(t, e.DelayMs, timing.MinBackspaceDelay)
			}
		}
	}
}
