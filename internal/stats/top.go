package stats

import (
	"sort"

	"github.com/verte-zerg/ghosttype/internal/model"
)

// CorrectionRate is the share of typed keystrokes for a character that were
// later deleted.
func CorrectionRate(cs model.RunCharStats) float64 {
	if cs.Typed == 0 {
		return 0
	}
	return float64(cs.Deleted) / float64(cs.Typed)
}

// TopCorrectedChars returns the n characters deleted most often, ties
// broken by correction rate and then by character.
func TopCorrectedChars(chars []model.RunCharStats, n int) []model.RunCharStats {
	if n <= 0 || len(chars) == 0 {
		return nil
	}
	items := make([]model.RunCharStats, len(chars))
	copy(items, chars)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Deleted != items[j].Deleted {
			return items[i].Deleted > items[j].Deleted
		}
		ri, rj := CorrectionRate(items[i]), CorrectionRate(items[j])
		if ri != rj {
			return ri > rj
		}
		return items[i].Char < items[j].Char
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
