package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return logger, nil
}

// OpenLogFile returns the writer for LogFile, or fallback when unset.
// The close function is never nil.
func (c Config) OpenLogFile(fallback io.Writer) (io.Writer, func() error, error) {
	if c.LogFile == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, func() error { return nil }, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}
