package stats

import (
	"testing"

	"github.com/verte-zerg/ghosttype/internal/model"
)

func TestTopCorrectedChars(t *testing.T) {
	chars := []model.RunCharStats{
		{Char: "b", Typed: 4, Deleted: 1},
		{Char: "a", Typed: 2, Deleted: 2},
		{Char: "c", Typed: 1, Deleted: 0},
		{Char: "d", Typed: 8, Deleted: 2},
	}
	top := TopCorrectedChars(chars, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 chars, got %d", len(top))
	}
	if top[0].Char != "a" || top[1].Char != "d" {
		t.Fatalf("unexpected order: %v", top)
	}
	if chars[0].Char != "b" {
		t.Fatalf("input was reordered")
	}
	if got := TopCorrectedChars(chars, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
