package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logger is the process-wide base logger. It discards everything until
// initLogging runs so tests and early startup stay quiet.
var logger = zerolog.Nop()

// defaultLogFile follows XDG: $XDG_STATE_HOME/recplay/recplay.log
func defaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateHome, "recplay", "recplay.log")
}

// initLogging points the base logger at a rotating log file.
// The terminal belongs to the UI, so nothing is ever written to stdout.
func initLogging(level, file string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = io.Discard
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err == nil {
			out = &lumberjack.Logger{
				Filename:   file,
				MaxSize:    5, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
		}
	}

	logger = zerolog.New(out).With().
		Timestamp().
		Str("app", "recplay").
		Logger()
}

// componentLogger returns a child logger tagged with the component name
func componentLogger(component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
