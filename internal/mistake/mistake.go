// Package mistake decides where typos happen and synthesizes the keystrokes
// that make and then correct them.
package mistake

import (
	"unicode"

	"github.com/verte-zerg/ghosttype/internal/behavior"
	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/random"
	"github.com/verte-zerg/ghosttype/internal/timing"
)

const (
	transpositionChance = 0.05
	interiorFactor      = 1.3
)

// keyboardNeighbors maps each letter to its QWERTY neighbors.
var keyboardNeighbors = map[rune][]rune{
	'q': []rune("wa"), 'w': []rune("qeas"), 'e': []rune("wrsd"), 'r': []rune("etdf"),
	't': []rune("ryfg"), 'y': []rune("tugh"), 'u': []rune("yihj"), 'i': []rune("uojk"),
	'o': []rune("ipkl"), 'p': []rune("ol"),
	'a': []rune("qwsz"), 's': []rune("awedxz"), 'd': []rune("serfcx"), 'f': []rune("drtgvc"),
	'g': []rune("ftyhbv"), 'h': []rune("gyujnb"), 'j': []rune("huikmn"), 'k': []rune("jiolm"),
	'l': []rune("kop"),
	'z': []rune("asx"), 'x': []rune("zsdc"), 'c': []rune("xdfv"), 'v': []rune("cfgb"),
	'b': []rune("vghn"), 'n': []rune("bhjm"), 'm': []rune("njk"),
}

var lowercase = []rune("abcdefghijklmnopqrstuvwxyz")

// Sequence is a typo and its correction, spliced into a plan in place of
// the normal event(s) for the consumed span.
type Sequence struct {
	Events []model.Event
	// ResumeIndex is the last source index the sequence consumed.
	ResumeIndex int
	// Transposed is set for swapped-pair sequences.
	Transposed bool
}

// Neighbors returns the keyboard neighbors of r, ignoring case.
func Neighbors(r rune) []rune {
	return keyboardNeighbors[unicode.ToLower(r)]
}

// ChooseWrongChar picks a plausible mistyped key for r, matching its case.
func ChooseWrongChar(src random.Source, r rune) rune {
	choices := Neighbors(r)
	if len(choices) == 0 {
		choices = lowercase
	}
	wrong := random.Pick(src, choices)
	if unicode.IsUpper(r) {
		return unicode.ToUpper(wrong)
	}
	return wrong
}

// ExtraLetters decides how many correct characters are typed past a typo
// before it is noticed: 40% none, 30% one, 20% two, 10% three or more.
func ExtraLetters(src random.Source, maxExtra int) int {
	if maxExtra <= 0 {
		return 0
	}
	var n int
	switch p := src.Float64(); {
	case p < 0.4:
		n = 0
	case p < 0.7:
		n = 1
	case p < 0.9:
		n = 2
	default:
		n = random.IntRange(src, 3, maxExtra)
	}
	if n > maxExtra {
		n = maxExtra
	}
	return n
}

// Model generates mistakes for one planning run.
type Model struct {
	settings model.Settings
	src      random.Source
}

// New returns a Model drawing from src.
func New(settings model.Settings, src random.Source) *Model {
	return &Model{settings: settings, src: src}
}

// Probability returns the mistake probability for position i before the
// Bernoulli draw.
func (m *Model) Probability(text []rune, i int) float64 {
	if i < 0 || i >= len(text) || behavior.IsWhitespace(text[i]) {
		return 0
	}
	p := m.settings.MistakeProbability
	if p <= 0 {
		return 0
	}
	if m.settings.TimeBasedMistakes {
		p = behavior.MistakeProbabilityCurve(behavior.Progress(i, len(text)), p)
	}
	if isInterior(text, i) {
		p *= interiorFactor
	}
	return p
}

// ShouldStart performs the draw for a standard mistake at i.
func (m *Model) ShouldStart(text []rune, i int) bool {
	return random.Chance(m.src, m.Probability(text, i))
}

// Attempt tries a transposition, then a standard mistake, at position i.
func (m *Model) Attempt(text []rune, i int) (Sequence, bool) {
	if m.settings.MistakeProbability > 0 && behavior.IsWordStart(text, i) && random.Chance(m.src, transpositionChance) {
		if seq, ok := m.Transposition(text, i); ok {
			return seq, true
		}
	}
	if m.ShouldStart(text, i) {
		return m.Standard(text, i), true
	}
	return Sequence{}, false
}

// Standard types a neighboring wrong key, optionally a few more correct
// characters, pauses, deletes back and retypes the span.
func (m *Model) Standard(text []rune, i int) Sequence {
	extra := ExtraLetters(m.src, m.settings.MaxExtraLetters)
	if limit := len(text) - 1 - i; extra > limit {
		extra = limit
	}

	events := make([]model.Event, 0, 2*(extra+1)+extra+1)
	wrong := ChooseWrongChar(m.src, text[i])
	events = append(events, model.TypeEvent{Char: wrong, DelayMs: m.charDelay(text, i)})
	for j := i + 1; j <= i+extra; j++ {
		events = append(events, model.TypeEvent{Char: text[j], DelayMs: m.charDelay(text, j)})
	}

	last := len(events) - 1
	events[last] = model.AddDelay(events[last], random.Uniform(m.src, 100, 300))

	for k := 0; k <= extra; k++ {
		events = append(events, model.DeleteEvent{DelayMs: timing.BackspaceDelay(m.src)})
	}
	for j := i; j <= i+extra; j++ {
		events = append(events, model.TypeEvent{Char: text[j], DelayMs: m.charDelay(text, j)})
	}
	return Sequence{Events: events, ResumeIndex: i + extra}
}

// Transposition swaps text[i] and text[i+1], notices, deletes both and
// retypes them in order. It does not apply across whitespace or at the
// end of the text.
func (m *Model) Transposition(text []rune, i int) (Sequence, bool) {
	if i < 0 || i+1 >= len(text) {
		return Sequence{}, false
	}
	first, second := text[i], text[i+1]
	if behavior.IsWhitespace(first) || behavior.IsWhitespace(second) {
		return Sequence{}, false
	}
	realize := random.Uniform(m.src, 150, 350)
	events := []model.Event{
		model.TypeEvent{Char: second, DelayMs: m.charDelay(text, i+1)},
		model.TypeEvent{Char: first, DelayMs: m.charDelay(text, i) + realize},
		model.DeleteEvent{DelayMs: timing.BackspaceDelay(m.src)},
		model.DeleteEvent{DelayMs: timing.BackspaceDelay(m.src)},
		model.TypeEvent{Char: first, DelayMs: m.charDelay(text, i)},
		model.TypeEvent{Char: second, DelayMs: m.charDelay(text, i+1)},
	}
	return Sequence{Events: events, ResumeIndex: i + 1, Transposed: true}, true
}

func (m *Model) charDelay(text []rune, i int) float64 {
	return timing.CharDelay(m.src, text, i, m.settings)
}

func isInterior(text []rune, i int) bool {
	if i <= 0 || i >= len(text)-1 {
		return false
	}
	return !behavior.IsWhitespace(text[i-1]) && !behavior.IsWhitespace(text[i+1])
}
