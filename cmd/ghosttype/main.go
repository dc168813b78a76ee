// Package main provides the CLI entrypoint for ghosttype.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/ghosttype/internal/config"
	"github.com/verte-zerg/ghosttype/internal/input"
	"github.com/verte-zerg/ghosttype/internal/logger"
	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/random"
	"github.com/verte-zerg/ghosttype/internal/replay"
	"github.com/verte-zerg/ghosttype/internal/stats"
)

const (
	defaultSampleCaps  = 0.3
	defaultSamplePunct = 0.15
	defaultAgentAddr   = "127.0.0.1:7331"
)

var (
	configPath string
	dbPath     string
	debugLog   bool

	fileCfg config.FileConfig
)

// planFlags holds the flags shared by every command that builds a plan.
type planFlags struct {
	file      string
	seed      int64
	sample    int
	wordsPath string

	wpm          float64
	mistakes     float64
	maxExtra     int
	randomness   string
	punctPauses  bool
	longPauses   bool
	burst        bool
	microPauses  bool
	thinking     bool
	timeSpeed    bool
	timeMistakes bool
}

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if cerr := logger.Close(); cerr != nil {
		logErrf("failed to close log: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "ghosttype",
		Short:             "Plan and replay human-like typing",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "run history database path")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "log at debug level and mirror logs to stderr")

	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newStreamCmd())
	rootCmd.AddCommand(newAgentCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// setup loads the config file and starts logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = cfg

	logCfg := logger.Config{Dir: config.DefaultLogDir(), Debug: debugLog}
	if cfg.Log.File != nil {
		logCfg.File = *cfg.Log.File
	}
	if cfg.Log.Level != nil {
		logCfg.Level = *cfg.Log.Level
	}
	if err := logger.Init(logCfg); err != nil {
		// A bad level is reported below; keep logging at the default.
		logCfg.Level = ""
		if err := logger.Init(logCfg); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
	}
	for _, problem := range cfg.Problems() {
		logger.Warn("ignoring config value", "problem", problem)
		logErrf("warning: %s\n", problem)
	}
	logger.Debug("command start", "cmd", cmd.CommandPath(), "config", configPath)
	return nil
}

func addPlanFlags(cmd *cobra.Command, f *planFlags) {
	defaults := model.DefaultSettings()
	flags := cmd.Flags()
	flags.StringVar(&f.file, "file", "", "read text from file")
	flags.Int64Var(&f.seed, "seed", 0, "random seed (default: time based)")
	flags.IntVar(&f.sample, "sample", 0, "generate N sample words instead of reading text")
	flags.StringVar(&f.wordsPath, "words", "", "word list for --sample (one word per line)")

	flags.Float64Var(&f.wpm, "wpm", defaults.WPM, "target words per minute (10-200)")
	flags.Float64Var(&f.mistakes, "mistakes", defaults.MistakeProbability, "mistake probability per character (0-0.5)")
	flags.IntVar(&f.maxExtra, "max-extra", defaults.MaxExtraLetters, "max letters typed past a mistake (0-10)")
	flags.StringVar(&f.randomness, "randomness", defaults.Randomness.String(), "timing noise: smooth, normal or high")
	flags.BoolVar(&f.punctPauses, "punctuation-pauses", defaults.PunctuationPauses, "pause around punctuation")
	flags.BoolVar(&f.longPauses, "long-word-pauses", defaults.LongWordPauses, "slow down on long words")
	flags.BoolVar(&f.burst, "burst", defaults.BurstTyping, "type in occasional fast bursts")
	flags.BoolVar(&f.microPauses, "micro-pauses", defaults.MicroPauses, "insert rare short hesitations")
	flags.BoolVar(&f.thinking, "thinking-pauses", defaults.ThinkingPauses, "pause before sentences and quotes")
	flags.BoolVar(&f.timeSpeed, "time-speed", defaults.TimeBasedSpeed, "warm up and tire over the text")
	flags.BoolVar(&f.timeMistakes, "time-mistakes", defaults.TimeBasedMistakes, "make more mistakes when tired")
}

// resolveSettings overlays changed flags onto the config file and clamps
// the result. Ignored values are reported as warnings.
func resolveSettings(cmd *cobra.Command, f *planFlags) model.Settings {
	pc := fileCfg.Plan
	overrideFloat(cmd, "wpm", &pc.WPM, f.wpm)
	overrideFloat(cmd, "mistakes", &pc.MistakeProbability, f.mistakes)
	overrideInt(cmd, "max-extra", &pc.MaxExtraLetters, f.maxExtra)
	overrideString(cmd, "randomness", &pc.Randomness, f.randomness)
	overrideBool(cmd, "punctuation-pauses", &pc.PunctuationPauses, f.punctPauses)
	overrideBool(cmd, "long-word-pauses", &pc.LongWordPauses, f.longPauses)
	overrideBool(cmd, "burst", &pc.BurstTyping, f.burst)
	overrideBool(cmd, "micro-pauses", &pc.MicroPauses, f.microPauses)
	overrideBool(cmd, "thinking-pauses", &pc.ThinkingPauses, f.thinking)
	overrideBool(cmd, "time-speed", &pc.TimeBasedSpeed, f.timeSpeed)
	overrideBool(cmd, "time-mistakes", &pc.TimeBasedMistakes, f.timeMistakes)

	settings, ignored := config.ResolveSettings(pc)
	for _, err := range ignored {
		logger.Warn("ignoring setting", "err", err)
		logErrf("warning: %v\n", err)
	}
	logger.Debug("resolved settings", "settings", fmt.Sprintf("%+v", settings))
	return settings
}

// resolveSeed returns the --seed value, or a time based seed when unset.
func resolveSeed(cmd *cobra.Command, f *planFlags) int64 {
	if cmd.Flags().Changed("seed") {
		return f.seed
	}
	_, seed := random.NewTimeSeeded()
	return seed
}

// loadText reads the text to plan from args, --file, piped stdin or the
// sample generator.
func loadText(cmd *cobra.Command, f *planFlags, args []string, seed int64) (string, error) {
	if f.sample > 0 {
		var words []string
		if f.wordsPath != "" {
			loaded, err := input.LoadWords(f.wordsPath)
			if err != nil {
				return "", err
			}
			words = loaded
		}
		return input.Sample(random.New(seed), input.SampleOptions{
			Words:    words,
			Count:    f.sample,
			CapsPct:  defaultSampleCaps,
			PunctPct: defaultSamplePunct,
		}), nil
	}
	src := input.Source{Args: args, File: f.file}
	if stdin := cmd.InOrStdin(); !isTerminalReader(stdin) {
		src.Stdin = stdin
	}
	return input.Load(src)
}

func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && stats.IsTerminal(f)
}

func resolveBatchSize(cmd *cobra.Command, flagValue int) int {
	if !cmd.Flags().Changed("batch-size") && fileCfg.Replay.BatchSize != nil {
		return *fileCfg.Replay.BatchSize
	}
	if flagValue <= 0 {
		return replay.DefaultBatchSize
	}
	return flagValue
}

func resolveURL(cmd *cobra.Command, flagValue string) string {
	if !cmd.Flags().Changed("url") && fileCfg.Replay.URL != nil {
		return *fileCfg.Replay.URL
	}
	return flagValue
}

func overrideFloat(cmd *cobra.Command, name string, target **float64, value float64) {
	if cmd.Flags().Changed(name) {
		*target = &value
	}
}

func overrideInt(cmd *cobra.Command, name string, target **int, value int) {
	if cmd.Flags().Changed(name) {
		*target = &value
	}
}

func overrideString(cmd *cobra.Command, name string, target **string, value string) {
	if cmd.Flags().Changed(name) {
		*target = &value
	}
}

func overrideBool(cmd *cobra.Command, name string, target **bool, value bool) {
	if cmd.Flags().Changed(name) {
		*target = &value
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	if err := ensureConfigFile(configPath); err != nil {
		return err
	}
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], configPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the commented template when path does not exist.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func defaultConfigTemplate() string {
	d := model.DefaultSettings()
	return fmt.Sprintf(`# ghosttype configuration
# Uncomment a value to enable it. CLI flags override config values.

[plan]
# wpm = %.0f                     # Target words per minute (10-200)
# mistake-probability = %.2f     # Chance of a mistake per character (0-0.5)
# max-extra-letters = %d          # Letters typed past a mistake before noticing (0-10)
# randomness = %q           # smooth, normal or high
# punctuation-pauses = %t
# long-word-pauses = %t
# burst-typing = %t
# micro-pauses = %t
# thinking-pauses = %t
# time-based-speed = %t
# time-based-mistakes = %t

[replay]
# batch-size = %d                # Events handed to the injector at once
# url = "ws://%s/"    # Agent to stream to instead of the local buffer

[log]
# level = "warn"                 # debug, info, warn or error
# file = "/path/to/ghosttype.log"
`,
		d.WPM,
		d.MistakeProbability,
		d.MaxExtraLetters,
		d.Randomness.String(),
		d.PunctuationPauses,
		d.LongWordPauses,
		d.BurstTyping,
		d.MicroPauses,
		d.ThinkingPauses,
		d.TimeBasedSpeed,
		d.TimeBasedMistakes,
		replay.DefaultBatchSize,
		defaultAgentAddr,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
