package input

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/ghosttype/internal/random"
)

// DefaultWords backs sample text when no word list is given.
var DefaultWords = []string{
	"the", "of", "and", "to", "in", "is", "you", "that", "it", "he",
	"was", "for", "on", "are", "as", "with", "his", "they", "at", "be",
	"this", "have", "from", "or", "one", "had", "by", "word", "but", "not",
	"what", "all", "were", "we", "when", "your", "can", "said", "there", "use",
	"each", "which", "she", "do", "how", "their", "if", "will", "up", "other",
	"about", "out", "many", "then", "them", "these", "so", "some", "her", "would",
	"make", "like", "him", "into", "time", "has", "look", "two", "more", "write",
	"keyboard", "quickly", "extraordinary", "jazz", "quiz", "paragraph", "sentence", "typing",
}

// SampleOptions shapes generated sample text.
type SampleOptions struct {
	Words    []string
	Count    int
	CapsPct  float64
	PunctPct float64
	Punct    []rune
}

// Sample builds demo text of Count words drawn uniformly from Words. A
// capitalized word starts each sentence.
func Sample(src random.Source, opts SampleOptions) string {
	words := opts.Words
	if len(words) == 0 {
		words = DefaultWords
	}
	punct := opts.Punct
	if len(punct) == 0 {
		punct = []rune(".,?!")
	}

	out := make([]string, 0, opts.Count)
	sentenceStart := true
	for i := 0; i < opts.Count; i++ {
		word := words[src.Intn(len(words))]
		if sentenceStart || random.Chance(src, opts.CapsPct) {
			word = capitalize(word)
		}
		sentenceStart = false
		if i == opts.Count-1 {
			word += "."
		} else if random.Chance(src, opts.PunctPct) {
			p := random.Pick(src, punct)
			word += string(p)
			sentenceStart = p == '.' || p == '?' || p == '!'
		}
		out = append(out, word)
	}
	return strings.Join(out, " ")
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
