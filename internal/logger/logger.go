// Package logger provides debug-sink implementations for the broker's
// Config.Debug hook (§6). FileLogger is adapted directly from the
// teacher's internal/logger/logger.go JSONL activity logger: an
// append-only, one-line-per-event file under a log directory.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends one JSON object per line to a dated file under
// logDir, e.g. stompbroker_2026-07-31.jsonl.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileLogger opens (creating if necessary) today's log file under
// logDir.
func NewFileLogger(logDir string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}

	filename := filepath.Join(logDir, fmt.Sprintf("stompbroker_%s.jsonl",
		time.Now().Format("2006-01-02")))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}

	return &FileLogger{file: file}, nil
}

// Debug implements config.Debug, appending msg as a JSONL entry.
func (l *FileLogger) Debug(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := map[string]interface{}{
		"timestamp": time.Now().Unix(),
		"message":   msg,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = l.file.Write(append(data, '\n'))
}

// Close closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
