// Package logger writes leveled, timestamped console output for the CLI.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level orders message severities.
type Level int

// Levels, most verbose first.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}

	return "info"
}

// ParseLevel parses a level name case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}

	return LevelInfo, fmt.Errorf("invalid log level: %s (valid: trace, debug, info, warn, error)", s)
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// ConsoleLogger writes "[HH:MM:SS] [LEVEL] message" lines. It is safe for
// concurrent use; scans log from many goroutines.
type ConsoleLogger struct {
	writer      io.Writer
	level       Level
	mutex       sync.Mutex
	colorOutput bool
	now         func() time.Time
}

// NewConsoleLogger creates a ConsoleLogger. A nil writer discards
// everything. Color is used when writing to a terminal stdout or stderr.
func NewConsoleLogger(writer io.Writer, level Level) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		level:       level,
		colorOutput: isTerminal(writer),
		now:         time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	if w == os.Stdout || w == os.Stderr {
		// fatih/color already honours NO_COLOR and non-TTY outputs
		return !color.NoColor
	}

	return false
}

// Level returns the minimum level written.
func (cl *ConsoleLogger) Level() Level {
	return cl.level
}

func (cl *ConsoleLogger) Tracef(format string, args ...any) {
	cl.logf(LevelTrace, format, args...)
}

// Debugf is also what the scanner calls for every absorbed problem.
func (cl *ConsoleLogger) Debugf(format string, args ...any) {
	cl.logf(LevelDebug, format, args...)
}

func (cl *ConsoleLogger) Infof(format string, args ...any) {
	cl.logf(LevelInfo, format, args...)
}

func (cl *ConsoleLogger) Warnf(format string, args ...any) {
	cl.logf(LevelWarn, format, args...)
}

func (cl *ConsoleLogger) Errorf(format string, args ...any) {
	cl.logf(LevelError, format, args...)
}

// LogScanSummary logs the outcome of a scan at INFO level.
// Format: "[HH:MM:SS] Scanned <root>: <n> entries, <p> problems (<duration>)"
func (cl *ConsoleLogger) LogScanSummary(root string, entries, problems int, elapsed time.Duration) {
	if cl.writer == nil || cl.level > LevelInfo {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	rootText := root
	problemText := fmt.Sprintf("%d problems", problems)

	if cl.colorOutput {
		rootText = color.New(color.Bold).Sprint(root)

		if problems > 0 {
			problemText = color.New(color.FgYellow).Sprint(problemText)
		}
	}

	_, _ = fmt.Fprintf(cl.writer, "[%s] Scanned %s: %d entries, %s (%s)\n",
		cl.timestamp(), rootText, entries, problemText, elapsed.Round(time.Millisecond))
}

func (cl *ConsoleLogger) logf(level Level, format string, args ...any) {
	if cl.writer == nil || level < cl.level {
		return
	}

	message := fmt.Sprintf(format, args...)
	label := strings.ToUpper(level.String())

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	if cl.colorOutput {
		label = levelColor(level).Sprint(label)
	}

	_, _ = fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", cl.timestamp(), label, message)
}

func (cl *ConsoleLogger) timestamp() string {
	return cl.now().Format("15:04:05")
}

func levelColor(level Level) *color.Color {
	switch level {
	case LevelTrace:
		return color.New(color.FgHiBlack)
	case LevelDebug:
		return color.New(color.FgCyan)
	case LevelInfo:
		return color.New(color.FgBlue)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed)
	}

	return color.New(color.Reset)
}
