// Package logging configures the structured logger used by connectctl.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// LevelSilent is above every level slog emits, so nothing is logged.
const LevelSilent = slog.Level(1000)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
	"silent":  LevelSilent,
	"none":    LevelSilent,
}

// ParseLogLevel converts a level name to a slog.Level. Unknown names map to info.
func ParseLogLevel(level string) slog.Level {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warning", "error", "silent"}
}

// InitLogging installs a text handler writing to stderr as the default logger.
func InitLogging(logLevel string) {
	InitLoggingTo(os.Stderr, logLevel)
}

// InitLoggingTo is InitLogging with a custom destination.
func InitLoggingTo(w io.Writer, logLevel string) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLogLevel(logLevel),
	})
	slog.SetDefault(slog.New(handler).With("app", "connectctl"))
}

// LogLevel backs the --log-level flag.
var LogLevel = &logLevelFlag{value: "silent", set: false}

type logLevelFlag struct {
	value string
	set   bool
}

func (l *logLevelFlag) Set(value string) error {
	if !slices.Contains(ValidLogLevels(), value) {
		return fmt.Errorf("invalid value '%s'. Allowed values: %s",
			value, strings.Join(ValidLogLevels(), ", "))
	}
	l.value = value
	l.set = true
	return nil
}

func (l *logLevelFlag) String() string {
	return l.value
}

func (l *logLevelFlag) Type() string {
	return fmt.Sprintf("one of [%s]", strings.Join(ValidLogLevels(), "|"))
}

// IsSet returns true if the flag was explicitly set via command line
func (l *logLevelFlag) IsSet() bool {
	return l.set
}
