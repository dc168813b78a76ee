package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		run := model.RunStats{
			StartedAt:  start,
			EndedAt:    end,
			Target:     "buffer",
			Settings:   model.DefaultSettings(),
			TextLength: 50,
			Events:     60,
			Consumed:   60,
			Deletes:    5,
			PlannedMs:  30000,
			ElapsedMs:  end.Sub(start).Milliseconds(),
			Status:     model.RunCompleted,
		}
		chars := []model.RunCharStats{
			{Char: "a", Typed: 5, Deleted: 0},
			{Char: "b", Typed: 4, Deleted: 1},
		}
		id, err := st.InsertRun(ctx, run, chars)
		if err != nil {
			t.Fatalf("insert run: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.HistoryFilter{Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(report.Runs))
	}
	if report.Runs[0].ID != ids[1] || report.Runs[1].ID != ids[2] {
		t.Fatalf("unexpected run ids: %+v", report.Runs)
	}
	if len(report.Chars) != 2 || report.Chars[1].Typed != 8 || report.Chars[1].Deleted != 2 {
		t.Fatalf("unexpected char aggregates: %+v", report.Chars)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, 1); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Most corrected characters") || !strings.Contains(out, "25.0%") {
		t.Fatalf("unexpected report output:\n%s", out)
	}
}
