package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	warnColor   = color.New(color.FgYellow, color.Bold)
	detailColor = color.New(color.FgCyan)
)

// Logger is the verbosity-gated diagnostic stream. Not safe for concurrent
// use; the pipeline is single-threaded per module, and each module gets its
// own logger when modules are processed in parallel.
type Logger struct {
	w        io.Writer
	level    Level
	colorize bool
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level Level, colorize bool) *Logger {
	return &Logger{w: w, level: level, colorize: colorize}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{w: io.Discard, level: LevelQuiet}
}

// Level returns the configured level.
func (l *Logger) Level() Level { return l.level }

// Enabled reports whether messages at lv would be emitted.
func (l *Logger) Enabled(lv Level) bool {
	return l != nil && l.level >= lv
}

// Writer exposes the underlying writer for bulk dumps at full level.
// Returns io.Discard when full dumps are disabled.
func (l *Logger) Writer() io.Writer {
	if !l.Enabled(LevelFull) {
		return io.Discard
	}
	return l.w
}

// Summaryf emits a per-module summary line.
func (l *Logger) Summaryf(format string, args ...any) {
	l.printf(LevelSummary, format, args...)
}

// Detailf emits a per-method or per-block decision line.
func (l *Logger) Detailf(format string, args ...any) {
	if !l.Enabled(LevelDetail) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.colorize {
		msg = detailColor.Sprint(msg)
	}
	fmt.Fprintln(l.w, msg)
}

// Dumpf emits full-dump output.
func (l *Logger) Dumpf(format string, args ...any) {
	l.printf(LevelFull, format, args...)
}

// Warnf emits a warning regardless of level.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.colorize {
		msg = warnColor.Sprint("warning: ") + msg
	} else {
		msg = "warning: " + msg
	}
	fmt.Fprintln(l.w, msg)
}

func (l *Logger) printf(lv Level, format string, args ...any) {
	if !l.Enabled(lv) {
		return
	}
	fmt.Fprintf(l.w, format+"\n", args...)
}
