package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/ghosttype/internal/historyui"
	"github.com/verte-zerg/ghosttype/internal/stats"
	"github.com/verte-zerg/ghosttype/internal/store"
)

const defaultTopChars = 10

func newHistoryCmd() *cobra.Command {
	var (
		target   string
		since    string
		last     int
		topChars int
		useTUI   bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := historyui.ParseFilterInputs(target, since, fmt.Sprint(last))
			if err != nil {
				return err
			}
			st, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer func() {
				if cerr := st.Close(); cerr != nil {
					logErrf("failed to close db: %v\n", cerr)
				}
			}()

			if useTUI {
				program := tea.NewProgram(historyui.NewModel(st, filter), tea.WithAltScreen())
				if _, err := program.Run(); err != nil {
					return fmt.Errorf("failed to run history TUI: %w", err)
				}
				return nil
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			report, err := stats.BuildReport(ctx, st, filter)
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), topChars)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "only runs replayed to this target (buffer or agent URL)")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&last, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&topChars, "top", defaultTopChars, "number of most corrected characters to list")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "browse runs interactively")
	return cmd
}
