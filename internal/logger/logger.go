// Package logger provides verbose logging for the narrator CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow chunking, retries, rate
// waits and fallback decisions. Output goes through zap; the console
// format reads like plain "[LEVEL] message" lines and the json format
// suits log collectors.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	format  = FormatConsole
	output  io.Writer = os.Stderr
	sugar   = build(output, format, verbose)
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	sugar = build(output, format, verbose)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	sugar = build(output, format, verbose)
}

// SetFormat selects "console" or "json" output. Unknown formats are rejected.
func SetFormat(f string) error {
	f = strings.ToLower(strings.TrimSpace(f))
	if f != FormatConsole && f != FormatJSON {
		return fmt.Errorf("unknown log format %q (want %s or %s)", f, FormatConsole, FormatJSON)
	}
	mu.Lock()
	defer mu.Unlock()
	format = f
	sugar = build(output, format, verbose)
	return nil
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	if format == FormatJSON {
		sugar.Infow("section", "name", name)
		return
	}
	fmt.Fprintf(output, "\n=== %s ===\n", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infof(format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Warnf(format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Errorf(format, args...)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	// Sync fails on terminals on some platforms; nothing useful to do about it.
	_ = sugar.Sync()
}

// build creates the zap logger for the current settings. Outside verbose
// mode only errors are written.
func build(w io.Writer, f string, v bool) *zap.SugaredLogger {
	level := zapcore.ErrorLevel
	if v {
		level = zapcore.DebugLevel
	}

	var enc zapcore.Encoder
	if f == FormatJSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		enc = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeLevel:      bracketLevelEncoder,
			ConsoleSeparator: " ",
		})
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}
