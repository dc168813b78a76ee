package main

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/ghosttype/internal/logger"
	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/planner"
	"github.com/verte-zerg/ghosttype/internal/random"
	"github.com/verte-zerg/ghosttype/internal/replay"
	"github.com/verte-zerg/ghosttype/internal/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const chartHeight = 10

// planOutput is the JSON document printed by plan --format json.
type planOutput struct {
	Seed     int64      `json:"seed"`
	Text     string     `json:"text"`
	Settings wireConfig `json:"settings"`
	Plan     model.Plan `json:"plan"`
}

type wireConfig struct {
	WPM                float64 `json:"wpm"`
	MistakeProbability float64 `json:"mistakeProbability"`
	MaxExtraLetters    int     `json:"maxExtraLetters"`
	Randomness         string  `json:"randomness"`
	PunctuationPauses  bool    `json:"punctuationPauses"`
	LongWordPauses     bool    `json:"longWordPauses"`
	BurstTyping        bool    `json:"burstTyping"`
	MicroPauses        bool    `json:"microPauses"`
	ThinkingPauses     bool    `json:"thinkingPauses"`
	TimeBasedSpeed     bool    `json:"timeBasedSpeed"`
	TimeBasedMistakes  bool    `json:"timeBasedMistakes"`
}

func toWireConfig(s model.Settings) wireConfig {
	return wireConfig{
		WPM:                s.WPM,
		MistakeProbability: s.MistakeProbability,
		MaxExtraLetters:    s.MaxExtraLetters,
		Randomness:         s.Randomness.String(),
		PunctuationPauses:  s.PunctuationPauses,
		LongWordPauses:     s.LongWordPauses,
		BurstTyping:        s.BurstTyping,
		MicroPauses:        s.MicroPauses,
		ThinkingPauses:     s.ThinkingPauses,
		TimeBasedSpeed:     s.TimeBasedSpeed,
		TimeBasedMistakes:  s.TimeBasedMistakes,
	}
}

// buildPlan plans text with a source seeded by seed, logging planner
// decisions at debug level.
func buildPlan(text string, settings model.Settings, seed int64) model.Plan {
	return planner.New(random.New(seed), planner.WithLogger(logger.Get())).Plan(text, settings)
}

func newPlanCmd() *cobra.Command {
	f := &planFlags{}
	var (
		format string
		chart  bool
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "plan [text...]",
		Short: "Print a keystroke plan without replaying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("--format must be text or json")
			}
			seed := resolveSeed(cmd, f)
			text, err := loadText(cmd, f, args, seed)
			if err != nil {
				return err
			}
			settings := resolveSettings(cmd, f)
			plan := buildPlan(text, settings, seed)
			logger.Info("plan generated", "seed", seed, "events", plan.Len(), "ms", plan.Duration())

			if verify {
				if got := replay.Simulate(plan.Events); got != text {
					return fmt.Errorf("plan does not reproduce the text: got %q", got)
				}
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(planOutput{Seed: seed, Text: text, Settings: toWireConfig(settings), Plan: plan})
			}

			if err := stats.RenderPlanSummary(out, planner.Summarize(plan, len([]rune(text))), settings); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "Seed: %d\n", seed); err != nil {
				return err
			}
			if verify {
				if _, err := fmt.Fprintln(out, "Verified: replay reproduces the text"); err != nil {
					return err
				}
			}
			if chart {
				if _, err := fmt.Fprintln(out); err != nil {
					return err
				}
				return stats.RenderDelayChart(out, plan, 0, chartHeight, stats.IsTerminal(out))
			}
			return nil
		},
	}
	addPlanFlags(cmd, f)
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&chart, "chart", false, "plot per-event delays")
	cmd.Flags().BoolVar(&verify, "verify", false, "check that replaying the plan reproduces the text")
	return cmd
}
