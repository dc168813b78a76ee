package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
	isBreak bool
}

// buildStyledRunes renders the target text against what has been typed so
// far. Typed runes that differ from the target show the typed rune.
func buildStyledRunes(target, typed []rune, cursorIndex int) []styledRune {
	words := findWords(target)
	currentWord := wordForCursor(words, cursorIndex)

	out := make([]styledRune, 0, len(target))
	for i, want := range target {
		displayed := want
		style := pendingStyle
		switch {
		case i < len(typed):
			switch got := typed[i]; {
			case got == want:
				style = correctStyle
			case isBlank(want):
				displayed = '•'
				style = incorrectStyle
			default:
				displayed = got
				style = incorrectStyle
			}
		case !isBlank(want) && currentWord != nil && i >= currentWord.start && i < currentWord.end:
			style = currentWordStyle
		}
		if i == cursorIndex {
			style = style.Underline(true)
		}
		text := string(displayed)
		width := runewidth.RuneWidth(displayed)
		switch displayed {
		case '\n':
			text, width = " ", 1
		case '\t':
			text, width = " ", 1
		}
		out = append(out, styledRune{
			s:       style.Render(text),
			width:   width,
			isSpace: isBlank(want),
			isBreak: want == '\n' && (i >= len(typed) || typed[i] == '\n'),
		})
	}
	return out
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

type wordRange struct {
	start int
	end   int
}

func findWords(target []rune) []wordRange {
	words := []wordRange{}
	start := -1
	for i, r := range target {
		if isBlank(r) {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(target)})
	}
	return words
}

func wordForCursor(words []wordRange, cursorIndex int) *wordRange {
	if len(words) == 0 || cursorIndex < 0 {
		return nil
	}
	for i, w := range words {
		if cursorIndex < w.end {
			return &words[i]
		}
	}
	return nil
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits, at hard
// newlines, or mid-word when a word is wider than the line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, width)
	lineWidth := 0
	lastSpace := -1

	flush := func(upto, resume int) {
		out.WriteString(renderStyledRunes(line[:upto]))
		out.WriteByte('\n')
		line = append(line[:0:0], line[resume:]...)
		lineWidth = lineWidthOf(line)
		lastSpace = lastSpaceIndex(line)
	}

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if item.isSpace {
				flush(len(line), len(line))
				i++
				continue
			}
			if lastSpace >= 0 {
				flush(lastSpace, lastSpace+1)
			} else {
				flush(len(line), len(line))
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
		if item.isBreak {
			flush(len(line)-1, len(line))
		}
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
