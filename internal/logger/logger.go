// Package logger builds the console logger used during boot. Lines are
// written to a character sink (the UART on hardware, stderr on a host) as
//
//	[INFO] - [boot] - message {"field": "value"}
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig configures the console logger
type LoggerConfig struct {
	// Console receives formatted log lines. Defaults to stderr.
	Console io.Writer

	// Level is the minimum enabled level name (debug, info, warn, error).
	Level string

	// Development enables zap development mode (DPanic panics).
	Development bool

	InitialFields []zap.Field
}

// NewLogger builds a console logger from the configuration
func NewLogger(loggerConfig LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if loggerConfig.Level != "" {
		parsed, err := zapcore.ParseLevel(loggerConfig.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", loggerConfig.Level, err)
		}
		level = parsed
	}

	console := loggerConfig.Console
	if console == nil {
		console = os.Stderr
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(GetEncoderConfig()),
		zapcore.AddSync(console),
		zap.NewAtomicLevelAt(level),
	)

	opts := []zap.Option{zap.Fields(loggerConfig.InitialFields...)}
	if loggerConfig.Development {
		opts = append(opts, zap.Development())
	}

	return zap.New(core, opts...), nil
}

// GetEncoderConfig returns the console encoder layout
func GetEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		NameKey:          "logger",
		EncodeLevel:      bracketLevelEncoder,
		EncodeName:       bracketNameEncoder,
		ConsoleSeparator: " - ",
		LineEnding:       zapcore.DefaultLineEnding,
	}
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func bracketNameEncoder(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + name + "]")
}
