// Package logging builds the component loggers used across fieldsync.
//
// Loggers follow the prefix convention used throughout the codebase
// ("[sync] ", "[daemon] ", ...) and write to both stderr and a size-rotated
// file, so a device in the field keeps a bounded history across app restarts.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.Mutex
	writer io.Writer = os.Stderr
)

// Setup directs all subsequently created loggers to stderr plus a rotating
// file under dir. Call once at startup; safe to skip in tests.
func Setup(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "fieldsync.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}

	mu.Lock()
	writer = io.MultiWriter(os.Stderr, rotating)
	mu.Unlock()
	return nil
}

// New returns a logger for the named component, e.g. New("daemon") yields the
// prefix "[daemon] ".
func New(component string) *log.Logger {
	mu.Lock()
	w := writer
	mu.Unlock()
	return log.New(w, "["+component+"] ", log.LstdFlags)
}
