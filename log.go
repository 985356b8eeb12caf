package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/advancedtts/advtts/internal/config"
	"github.com/charmbracelet/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logFile *lumberjack.Logger

// setupLog sends logs to stderr, as logfmt when stderr is not a terminal
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFormatter(log.LogfmtFormatter)
		log.SetReportTimestamp(true)
	}

	return func() error {
		if logFile != nil {
			return logFile.Close()
		}
		return nil
	}, nil
}

// applyLogConfig sets the level and, when a file is configured, rotates JSON
// logs there instead of writing to stderr
func applyLogConfig(c config.LogConfig, debug bool) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	if debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if c.File == "" || logFile != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return fmt.Errorf("unable to create log directory: %w", err)
	}
	logFile = &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		Compress:   true,
	}
	log.SetOutput(logFile)
	log.SetFormatter(log.JSONFormatter)
	log.SetReportTimestamp(true)
	return nil
}
