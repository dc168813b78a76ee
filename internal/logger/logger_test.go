package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Init(Config{Level: "info", Dir: dir}))
	t.Cleanup(func() {
		_ = Close()
		Logger = nil
	})

	assert.Equal(t, log.InfoLevel, Logger.GetLevel())
	Info("replay finished", "events", 12)
	Debug("hidden")

	data, err := os.ReadFile(filepath.Join(dir, "ghosttype.log"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "replay finished")
	assert.Contains(t, out, "events=12")
	assert.False(t, strings.Contains(out, "hidden"))
}

func TestInitDebugOverridesLevel(t *testing.T) {
	require.NoError(t, Init(Config{Level: "error", File: filepath.Join(t.TempDir(), "x.log"), Debug: true}))
	t.Cleanup(func() {
		_ = Close()
		Logger = nil
	})
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())
}

func TestInitRejectsBadLevel(t *testing.T) {
	err := Init(Config{Level: "loud", Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	assert.NotNil(t, Get())
	assert.NoError(t, Close())
}
