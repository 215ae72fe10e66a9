// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide zerolog logger.
//
// The TUI owns the terminal, so interactive runs always log to a file;
// CLI subcommands may log to stderr instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/routine-tui/internal/config"
)

// Options controls Init beyond what the config file says.
type Options struct {
	// ForceFile sends output to the log file regardless of log.output.
	ForceFile bool
	// Level overrides log.level when non-empty (the --log-level flag).
	Level string
}

// Init builds the global logger from cfg and returns a closer for any
// opened log file.
func Init(cfg config.LogConfig, opts Options) (io.Closer, error) {
	levelName := cfg.Level
	if opts.Level != "" {
		levelName = opts.Level
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", levelName, err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var (
		output io.Writer
		closer io.Closer = nopCloser{}
	)

	target := strings.ToLower(cfg.Output)
	if opts.ForceFile {
		target = "file"
	}

	switch target {
	case "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		path := cfg.File
		if path == "" {
			if path, err = config.DefaultLogPath(); err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
		}
		output = file
		closer = file
	}

	if strings.ToLower(cfg.Format) == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    target == "file",
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	log.Debug().
		Str("level", level.String()).
		Str("format", cfg.Format).
		Str("output", target).
		Msg("logger initialized")

	return closer, nil
}

// Discard silences the global logger. Used by tests and --log-level disabled.
func Discard() {
	log.Logger = zerolog.Nop()
}

// Component returns a child of the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
