package app

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// ConfigFile overrides the tomboot-config.yaml search
	ConfigFile string

	// Out receives command results, Err receives diagnostics and boot logs
	Out io.Writer
	Err io.Writer
}

// NewContext creates a new application context writing to stdout and stderr
func NewContext() *Context {
	return &Context{
		Context:      context.Background(),
		OutputFormat: "table",
		Out:          os.Stdout,
		Err:          os.Stderr,
	}
}

// Console returns the sink for boot log lines
func (c *Context) Console() io.Writer {
	if c.Quiet {
		return io.Discard
	}
	return c.Err
}

// LogLevel returns the boot log level implied by the verbosity flags, or
// fallback when no flag is set
func (c *Context) LogLevel(fallback string) string {
	switch {
	case c.Quiet:
		return "error"
	case c.Verbose:
		return "debug"
	default:
		return fallback
	}
}

// Log outputs a message based on verbosity settings
func (c *Context) Log(message string) {
	if !c.Quiet && c.Verbose {
		fmt.Fprintln(c.Err, message)
	}
}

// Error outputs an error message unless quiet
func (c *Context) Error(message string) {
	if !c.Quiet {
		fmt.Fprintln(c.Err, "Error:", message)
	}
}
