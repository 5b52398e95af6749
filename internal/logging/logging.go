// Package logging fans runtime events out to a console sink and an optional
// logfmt file sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	Level  string
	Prefix string
	// File, when set, receives an unstyled logfmt copy of every event.
	File string
}

// Logger writes to every configured sink. A nil *Logger discards everything.
type Logger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	filePath       string
}

// New builds a Logger writing styled text to console.
func New(console io.Writer, opts Options) (*Logger, error) {
	levelName := strings.TrimSpace(opts.Level)
	if levelName == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", opts.Level, err)
	}
	if console == nil {
		console = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(console, charmLog.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})
	l := &Logger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}

	path := strings.TrimSpace(opts.File)
	if path == "" {
		return l, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	fileLogger := charmLog.NewWithOptions(f, charmLog.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	l.sinks = append(l.sinks, fileLogger)
	l.closeFile = f.Close
	l.filePath = path
	return l, nil
}

// Discard returns a logger with no sinks.
func Discard() *Logger { return &Logger{} }

// FilePath returns the file sink path, if any.
func (l *Logger) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Close closes the file sink.
func (l *Logger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled mutes the console sink while a full-screen program owns
// the terminal.
func (l *Logger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// With returns a logger whose sinks all carry keyvals.
func (l *Logger) With(keyvals ...any) *Logger {
	if l == nil {
		return nil
	}
	out := &Logger{
		consoleEnabled: l.consoleEnabled,
		filePath:       l.filePath,
	}
	for _, sink := range l.sinks {
		child := sink.With(keyvals...)
		if sink == l.consoleSink {
			out.consoleSink = child
		}
		out.sinks = append(out.sinks, child)
	}
	return out
}

func (l *Logger) each(fn func(*charmLog.Logger)) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if sink == l.consoleSink && !l.consoleEnabled {
			continue
		}
		fn(sink)
	}
}

func (l *Logger) Debug(msg string, keyvals ...any) {
	l.each(func(s *charmLog.Logger) { s.Debug(msg, keyvals...) })
}

func (l *Logger) Info(msg string, keyvals ...any) {
	l.each(func(s *charmLog.Logger) { s.Info(msg, keyvals...) })
}

func (l *Logger) Warn(msg string, keyvals ...any) {
	l.each(func(s *charmLog.Logger) { s.Warn(msg, keyvals...) })
}

func (l *Logger) Error(msg string, keyvals ...any) {
	l.each(func(s *charmLog.Logger) { s.Error(msg, keyvals...) })
}
