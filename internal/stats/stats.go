// Package stats contains plan and run metrics and their text reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/planner"
)

const sparkChars = " .:-=+*#%@"

// RunMetrics computes the observed WPM and the share of the plan that was
// consumed for a stored run.
func RunMetrics(run model.RunAggregate) (wpm, completion float64) {
	if run.Events > 0 {
		completion = float64(run.Consumed) / float64(run.Events)
	}
	if run.ElapsedMs <= 0 {
		return 0, completion
	}
	minutes := float64(run.ElapsedMs) / 60000.0
	typed := float64(run.TextLength) * completion
	return typed / 5.0 / minutes, completion
}

// Drift returns how far the observed elapsed time strayed from the planned
// total, as a fraction of the planned time consumed.
func Drift(run model.RunAggregate) float64 {
	if run.PlannedMs <= 0 || run.Events == 0 {
		return 0
	}
	planned := run.PlannedMs * float64(run.Consumed) / float64(run.Events)
	if planned <= 0 {
		return 0
	}
	return (float64(run.ElapsedMs) - planned) / planned
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := minMax(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		idx = max(0, min(last, idx))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// DelaySeries returns the delay of every event in plan order.
func DelaySeries(plan model.Plan) []float64 {
	out := make([]float64, len(plan.Events))
	for i, ev := range plan.Events {
		out[i] = ev.Delay()
	}
	return out
}

// RenderPlanSummary prints the headline numbers of a plan.
func RenderPlanSummary(w io.Writer, sum planner.Summary, settings model.Settings) error {
	lines := []string{
		"Plan",
		fmt.Sprintf("Characters: %d", sum.Characters),
		fmt.Sprintf("Events: %d (%d typed, %d deleted)", sum.Types+sum.Deletes, sum.Types, sum.Deletes),
		fmt.Sprintf("Corrections: %d", sum.Corrections),
		fmt.Sprintf("Duration: %s", FormatMs(sum.TotalTimeMs)),
		fmt.Sprintf("Target WPM: %.0f (%s)", settings.WPM, settings.Randomness),
		fmt.Sprintf("Effective WPM: %.2f", sum.EffectiveWPM),
		fmt.Sprintf("Accuracy (approx): %.2f%%", sum.DisplayAccuracy*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistory prints a table of stored runs, oldest first.
func RenderHistory(w io.Writer, runs []model.RunAggregate) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	headers := []string{"Ended", "Target", "Status", "Chars", "Events", "Deletes", "Planned", "Elapsed", "WPM", "Done"}
	rows := make([][]string, 0, len(runs))
	wpms := make([]float64, 0, len(runs))
	for _, r := range runs {
		wpm, completion := RunMetrics(r)
		wpms = append(wpms, wpm)
		rows = append(rows, []string{
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.Target,
			string(r.Status),
			fmt.Sprintf("%d", r.TextLength),
			fmt.Sprintf("%d", r.Events),
			fmt.Sprintf("%d", r.Deletes),
			FormatMs(r.PlannedMs),
			FormatMs(float64(r.ElapsedMs)),
			fmt.Sprintf("%.1f", wpm),
			fmt.Sprintf("%.0f%%", completion*100),
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(wpms) > 1 {
		if _, err := fmt.Fprintf(w, "\nWPM trend: %s\n", Sparkline(wpms)); err != nil {
			return err
		}
	}
	return nil
}

// RenderCharTable prints per-character counts, most corrected first.
func RenderCharTable(w io.Writer, chars []model.RunCharStats) error {
	if len(chars) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	headers := []string{"Char", "Typed", "Deleted", "Corrected"}
	rows := make([][]string, 0, len(chars))
	for _, cs := range TopCorrectedChars(chars, len(chars)) {
		rows = append(rows, []string{
			CharLabel(cs.Char),
			fmt.Sprintf("%d", cs.Typed),
			fmt.Sprintf("%d", cs.Deleted),
			fmt.Sprintf("%.1f%%", CorrectionRate(cs)*100),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CharLabel makes whitespace characters visible.
func CharLabel(ch string) string {
	switch ch {
	case " ":
		return "<space>"
	case "\t":
		return "<tab>"
	case "\n":
		return "<newline>"
	default:
		return ch
	}
}

// FormatMs renders a millisecond duration compactly.
func FormatMs(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.0fms", ms)
	}
	secs := ms / 1000
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	minutes := int(secs) / 60
	return fmt.Sprintf("%dm%02ds", minutes, int(secs)%60)
}

func minMax(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}
