// Package audit appends human-readable change records to monthly log files
// under the data directory, so the shop keeps a paper trail of setup and
// profile edits independent of the database.
package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Log writes append-only audit entries. Safe for concurrent use.
type Log struct {
	dir string

	mu sync.Mutex
}

// New creates (if needed) the logs directory and returns a Log writing
// into it.
func New(dataDir string) (*Log, error) {
	dir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}
	return &Log{dir: dir}, nil
}

// Record appends one entry to the current month's file for the given
// category ("profile_edit", "setup_edit", "backup"). Audit failures are
// logged and swallowed; they must never fail the operation being recorded.
func (l *Log) Record(category, format string, args ...any) {
	if l == nil {
		return
	}
	now := time.Now()
	line := fmt.Sprintf("%s  %s\n", now.Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
	path := filepath.Join(l.dir, fmt.Sprintf("%s_%s.log", category, now.Format("2006-01")))

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("opening audit log", "path", path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		slog.Warn("writing audit log", "path", path, "error", err)
	}
}

// Dir returns the logs directory path.
func (l *Log) Dir() string {
	return l.dir
}
