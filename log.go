package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "announce").CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "announce.log"), nil
}

// setupLog sends info level logs to stderr. In debug mode the level drops to
// debug and everything is also appended to the log file.
func setupLog(debug bool, logFile string) (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)
	log.SetLevel(log.InfoLevel)
	if !debug {
		return func() error { return nil }, nil
	}

	if logFile == "" {
		var err error
		if logFile, err = getLogFilePath(); err != nil {
			return nil, fmt.Errorf("unable to locate log file: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stderr, f))
	log.SetReportTimestamp(true)
	log.SetLevel(log.DebugLevel)
	log.Debug("Logging to file", "path", logFile)
	return f.Close, nil
}
