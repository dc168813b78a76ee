package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Runs  []model.RunAggregate
	Chars []model.RunCharStats
}

// BuildReport loads runs matching filter and their combined character counts.
func BuildReport(ctx context.Context, st *store.Store, filter model.HistoryFilter) (Report, error) {
	runs, err := st.ListRuns(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	chars, err := st.AggregateChars(ctx, runIDs(runs))
	if err != nil {
		return Report{}, err
	}
	return Report{Runs: runs, Chars: chars}, nil
}

// Render prints the run table followed by the most corrected characters.
func (r Report) Render(w io.Writer, topChars int) error {
	if err := RenderHistory(w, r.Runs); err != nil {
		return err
	}
	if len(r.Runs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nMost corrected characters"); err != nil {
		return err
	}
	return RenderCharTable(w, TopCorrectedChars(r.Chars, topChars))
}

func runIDs(runs []model.RunAggregate) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}
