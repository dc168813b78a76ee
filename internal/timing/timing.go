// Package timing converts typing speed and character context into delays.
package timing

import (
	"math"
	"strings"
	"unicode"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/random"
)

// Delay floors in milliseconds. Humans cannot act faster than these.
const (
	MinEventDelay     = 20.0
	MinNoisyDelay     = 30.0
	MinBackspaceDelay = 40.0
)

// charsPerWord is the conventional word length used for WPM.
const charsPerWord = 5.0

const symbolSet = "!@#$%^&*()_+-=[]{}|;:'\",.<>?/`~\\"

const clausePunct = ".,;:!?"

type noiseRange struct {
	lo, hi float64
}

var noiseByTier = map[model.Randomness]noiseRange{
	model.RandomnessSmooth: {lo: -10, hi: 10},
	model.RandomnessNormal: {lo: -60, hi: 80},
	model.RandomnessHigh:   {lo: -120, hi: 150},
}

// SpeedToBaseDelay returns the per-character delay for wpm.
func SpeedToBaseDelay(wpm float64) float64 {
	return 60000.0 / (wpm * charsPerWord)
}

// IsSymbol reports whether r belongs to the punctuation/symbol set.
func IsSymbol(r rune) bool {
	return strings.ContainsRune(symbolSet, r)
}

// IsClausePunct reports whether r ends a clause or sentence.
func IsClausePunct(r rune) bool {
	return strings.ContainsRune(clausePunct, r)
}

// IsSentenceEnd reports whether r ends a sentence.
func IsSentenceEnd(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

// BaseDelayForChar applies the character-class adjustment to the base
// delay. Only the first matching class applies: uppercase, symbol,
// space/tab, newline.
func BaseDelayForChar(src random.Source, r rune, settings model.Settings) float64 {
	delay := SpeedToBaseDelay(settings.WPM)
	switch {
	case unicode.IsUpper(r):
		delay += random.Uniform(src, 20, 50)
	case IsSymbol(r):
		delay += random.Uniform(src, 30, 80)
	case r == ' ' || r == '\t':
		delay *= 0.9
	case r == '\n':
		delay *= 1.2
	}
	return delay
}

// AddNoise adds tier-dependent jitter and floors the result.
func AddNoise(src random.Source, base float64, tier model.Randomness) float64 {
	nr, ok := noiseByTier[tier]
	if !ok {
		nr = noiseByTier[model.RandomnessNormal]
	}
	return math.Max(MinNoisyDelay, base+random.Uniform(src, nr.lo, nr.hi))
}

// StartsSentence reports whether the two runes before i are sentence
// punctuation followed by a space.
func StartsSentence(text []rune, i int) bool {
	if i < 2 || i > len(text) {
		return false
	}
	return IsSentenceEnd(text[i-2]) && text[i-1] == ' '
}

// UpcomingWordLength counts the non-whitespace run starting at i.
func UpcomingWordLength(text []rune, i int) int {
	n := 0
	for j := i; j >= 0 && j < len(text); j++ {
		if unicode.IsSpace(text[j]) {
			break
		}
		n++
	}
	return n
}

// ContextualExtraDelay sums the independent context pauses for position i:
// after clause punctuation, before a new sentence, before long words and
// at paragraph breaks.
func ContextualExtraDelay(src random.Source, text []rune, i int, settings model.Settings) float64 {
	if i < 0 || i >= len(text) {
		return 0
	}
	extra := 0.0
	cur := text[i]

	if settings.PunctuationPauses {
		if i > 0 && IsClausePunct(text[i-1]) {
			extra += random.Uniform(src, 200, 500)
		}
		if StartsSentence(text, i) && cur != ' ' {
			extra += random.Uniform(src, 300, 800)
		}
	}

	if settings.LongWordPauses {
		switch n := UpcomingWordLength(text, i); {
		case n >= 10:
			extra += random.Uniform(src, 200, 400)
		case n >= 8:
			extra += random.Uniform(src, 100, 250)
		}
	}

	if settings.PunctuationPauses && i > 0 && cur == '\n' && text[i-1] == '\n' {
		extra += random.Uniform(src, 500, 1000)
	}
	return extra
}

// BackspaceDelay returns the delay for one delete keystroke.
func BackspaceDelay(src random.Source) float64 {
	base := random.Uniform(src, 60, 120)
	return math.Max(MinBackspaceDelay, base+random.Uniform(src, -20, 30))
}

// CharDelay is the full delay for a normally typed character: base class
// delay plus context, passed through noise and floored.
func CharDelay(src random.Source, text []rune, i int, settings model.Settings) float64 {
	base := BaseDelayForChar(src, text[i], settings)
	base += ContextualExtraDelay(src, text, i, settings)
	return math.Max(MinEventDelay, AddNoise(src, base, settings.Randomness))
}
