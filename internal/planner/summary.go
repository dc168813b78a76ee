package planner

import "github.com/verte-zerg/ghosttype/internal/model"

// Summary describes a plan for display.
type Summary struct {
	Characters int
	Types      int
	Deletes    int
	// Corrections counts runs of consecutive deletes.
	Corrections  int
	TotalTimeMs  float64
	EffectiveWPM float64
	// DisplayAccuracy is a UI heuristic, not a property of the plan.
	DisplayAccuracy float64
}

// Summarize computes display metrics for a plan of text with n characters.
func Summarize(plan model.Plan, n int) Summary {
	s := Summary{Characters: n, TotalTimeMs: plan.TotalTimeMs}
	inRun := false
	for _, ev := range plan.Events {
		switch ev.(type) {
		case model.TypeEvent:
			s.Types++
			inRun = false
		case model.DeleteEvent:
			s.Deletes++
			if !inRun {
				s.Corrections++
			}
			inRun = true
		}
	}
	if plan.TotalTimeMs > 0 {
		minutes := plan.TotalTimeMs / 60000.0
		s.EffectiveWPM = float64(n) / 5.0 / minutes
	}
	if s.Types > 0 {
		acc := 1 - float64(s.Deletes*2)/float64(s.Types)
		if acc < 0 {
			acc = 0
		}
		s.DisplayAccuracy = acc
	}
	return s
}
