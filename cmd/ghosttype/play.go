package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/ghosttype/internal/logger"
	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/replay"
	"github.com/verte-zerg/ghosttype/internal/stats"
	"github.com/verte-zerg/ghosttype/internal/store"
	"github.com/verte-zerg/ghosttype/internal/transport"
	"github.com/verte-zerg/ghosttype/internal/tui"
)

const bufferTarget = "buffer"

// replayFlags holds the flags shared by play and stream.
type replayFlags struct {
	planFlags
	url       string
	batchSize int
	noSave    bool
}

func addReplayFlags(cmd *cobra.Command, f *replayFlags) {
	addPlanFlags(cmd, &f.planFlags)
	cmd.Flags().StringVar(&f.url, "url", "", "agent websocket URL (default: local buffer)")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", replay.DefaultBatchSize, "events handed to the injector at once")
	cmd.Flags().BoolVar(&f.noSave, "no-save", false, "do not record the run in history")
}

// session is a planned text ready to be replayed.
type session struct {
	text      string
	seed      int64
	settings  model.Settings
	plan      model.Plan
	target    string
	batchSize int
}

func prepareSession(cmd *cobra.Command, f *replayFlags, args []string) (session, error) {
	seed := resolveSeed(cmd, &f.planFlags)
	text, err := loadText(cmd, &f.planFlags, args, seed)
	if err != nil {
		return session{}, err
	}
	settings := resolveSettings(cmd, &f.planFlags)
	s := session{
		text:      text,
		seed:      seed,
		settings:  settings,
		plan:      buildPlan(text, settings, seed),
		target:    resolveURL(cmd, f.url),
		batchSize: resolveBatchSize(cmd, f.batchSize),
	}
	logger.Info("session prepared", "seed", seed, "events", s.plan.Len(), "target", s.targetName(), "batch", s.batchSize)
	return s, nil
}

func (s session) targetName() string {
	if s.target == "" {
		return bufferTarget
	}
	return s.target
}

// injector dials the agent when a URL is set and falls back to an
// in-memory buffer otherwise. The returned close func is never nil.
func (s session) injector(ctx context.Context) (replay.Injector, func(), error) {
	if s.target == "" {
		return replay.NewBuffer(), func() {}, nil
	}
	ws, err := transport.Dial(ctx, s.target, transport.WithClientLogger(logger.Get()))
	if err != nil {
		return nil, nil, err
	}
	return ws, func() {
		if err := ws.Close(); err != nil {
			logger.Warn("failed to close agent connection", "err", err)
		}
	}, nil
}

// record stores the outcome of a replay in the run history.
func (s session) record(ctx context.Context, startedAt time.Time, res replay.Result, runErr error) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return st.InsertRun(ctx, s.runStats(startedAt, res, runErr), replay.CharCounts(s.plan.Events[:res.Consumed]))
}

func (s session) runStats(startedAt time.Time, res replay.Result, runErr error) model.RunStats {
	_, deletes := model.NewPlan(s.plan.Events[:res.Consumed]).Counts()
	run := model.RunStats{
		StartedAt:  startedAt,
		EndedAt:    startedAt.Add(res.Elapsed),
		Target:     s.targetName(),
		Settings:   s.settings,
		Seed:       s.seed,
		TextLength: len([]rune(s.text)),
		Events:     s.plan.Len(),
		Consumed:   res.Consumed,
		Deletes:    deletes,
		PlannedMs:  s.plan.TotalTimeMs,
		ElapsedMs:  res.Elapsed.Milliseconds(),
		Status:     res.Status,
	}
	if runErr != nil && res.Status == model.RunFailed {
		run.ErrorDetail = runErr.Error()
	}
	return run
}

// previousRun returns the most recent stored run, if any.
func previousRun(ctx context.Context) *model.RunAggregate {
	st, err := store.Open(dbPath)
	if err != nil {
		logger.Warn("failed to open db", "err", err)
		return nil
	}
	defer func() {
		_ = st.Close()
	}()
	runs, err := st.ListRuns(ctx, model.HistoryFilter{Last: 1})
	if err != nil || len(runs) == 0 {
		return nil
	}
	return &runs[0]
}

func newPlayCmd() *cobra.Command {
	f := &replayFlags{}
	cmd := &cobra.Command{
		Use:   "play [text...]",
		Short: "Replay a plan in the terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := prepareSession(cmd, f, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			inj, closeInj, err := s.injector(ctx)
			if err != nil {
				return err
			}
			defer closeInj()

			m := tui.NewModel(s.text, s.plan, inj, tui.Options{
				Previous: previousRun(ctx),
				PlayerOptions: []replay.Option{
					replay.WithBatchSize(s.batchSize),
					replay.WithLogger(logger.Get()),
				},
			})
			startedAt := time.Now()
			program := tea.NewProgram(m, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("failed to run TUI: %w", err)
			}
			res, runErr := m.Result()
			return finish(ctx, cmd.OutOrStdout(), s, f.noSave, startedAt, res, runErr)
		},
	}
	addReplayFlags(cmd, f)
	return cmd
}

func newStreamCmd() *cobra.Command {
	f := &replayFlags{}
	cmd := &cobra.Command{
		Use:   "stream [text...]",
		Short: "Replay a plan without a UI, usually to an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := prepareSession(cmd, f, args)
			if err != nil {
				return err
			}
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			inj, closeInj, err := s.injector(ctx)
			if err != nil {
				return err
			}
			defer closeInj()

			player := replay.NewPlayer(s.plan, inj,
				replay.WithBatchSize(s.batchSize),
				replay.WithLogger(logger.Get()),
				replay.WithProgress(func(p replay.Progress) {
					logger.Debug("progress", "consumed", p.Consumed, "total", p.Total, "elapsed", p.Elapsed)
				}),
			)
			startedAt := time.Now()
			res, runErr := player.Run(ctx)
			if buf, ok := inj.(*replay.Buffer); ok {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), buf.String()); err != nil {
					return err
				}
			}
			return finish(context.WithoutCancel(ctx), cmd.OutOrStdout(), s, f.noSave, startedAt, res, runErr)
		},
	}
	addReplayFlags(cmd, f)
	return cmd
}

// finish records the run and prints a one-line outcome. Interrupting a run
// is not an error.
func finish(ctx context.Context, out io.Writer, s session, noSave bool, startedAt time.Time, res replay.Result, runErr error) error {
	if !noSave {
		id, err := s.record(ctx, startedAt, res, runErr)
		if err != nil {
			logger.Error("failed to record run", "err", err)
			logErrf("failed to record run: %v\n", err)
		} else {
			logger.Info("run recorded", "id", id, "status", res.Status)
		}
	}
	if _, err := fmt.Fprintf(out, "%s: %d/%d events in %s (planned %s)\n",
		res.Status, res.Consumed, s.plan.Len(),
		stats.FormatMs(float64(res.Elapsed.Milliseconds())), stats.FormatMs(s.plan.TotalTimeMs)); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
