package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerFormat(t *testing.T) {
	var console bytes.Buffer

	log, err := NewLogger(LoggerConfig{Console: &console, Level: "debug"})
	require.NoError(t, err)

	log.Named("boot").Info("environment initialized", zap.Int("blocks", 3))
	require.NoError(t, log.Sync())

	assert.Equal(t, "[INFO] - [boot] - environment initialized - {\"blocks\": 3}\n", console.String())
}

func TestNewLoggerLevelFilter(t *testing.T) {
	var console bytes.Buffer

	log, err := NewLogger(LoggerConfig{Console: &console, Level: "warn"})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "[WARN] - shown")
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger(LoggerConfig{Level: "chatty"})
	assert.Error(t, err)
}
