// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Plan   PlanConfig   `toml:"plan"`
	Replay ReplayConfig `toml:"replay"`
	Log    LogConfig    `toml:"log"`
}

// PlanConfig maps planning settings. Nil means unset.
type PlanConfig struct {
	WPM                *float64 `toml:"wpm"`
	MistakeProbability *float64 `toml:"mistake-probability"`
	MaxExtraLetters    *int     `toml:"max-extra-letters"`
	Randomness         *string  `toml:"randomness" validate:"omitempty,oneof=smooth normal high 0 1 2"`
	PunctuationPauses  *bool    `toml:"punctuation-pauses"`
	LongWordPauses     *bool    `toml:"long-word-pauses"`
	BurstTyping        *bool    `toml:"burst-typing"`
	MicroPauses        *bool    `toml:"micro-pauses"`
	ThinkingPauses     *bool    `toml:"thinking-pauses"`
	TimeBasedSpeed     *bool    `toml:"time-based-speed"`
	TimeBasedMistakes  *bool    `toml:"time-based-mistakes"`
}

// ReplayConfig maps replay settings.
type ReplayConfig struct {
	BatchSize *int    `toml:"batch-size" validate:"omitempty,min=1,max=1024"`
	URL       *string `toml:"url" validate:"omitempty,url"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	File  *string `toml:"file"`
}

var validate = validator.New()

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Problems lists enumerated values that are not recognized. They are
// reported as warnings; the affected settings fall back to defaults.
func (c FileConfig) Problems() []string {
	var problems []string
	for _, section := range []any{c.Plan, c.Replay, c.Log} {
		err := validate.Struct(section)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			problems = append(problems, err.Error())
			continue
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("invalid %s value %v (rule %s)", fe.Namespace(), fe.Value(), fe.Tag()))
		}
	}
	return problems
}
