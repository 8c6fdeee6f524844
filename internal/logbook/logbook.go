package logbook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook persists pipeline progress to a simple text file. The dashboard
// tails it for the status pane, so entries stay one line each.
type Logbook struct {
	path   string
	mu     sync.Mutex
	mirror io.Writer
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Logbook{path: path}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Mirror duplicates every entry to w (used for --verbose console output).
func (l *Logbook) Mirror(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mirror = w
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %-5s %s\n",
		time.Now().UTC().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
	if l.mirror != nil {
		_, _ = io.WriteString(l.mirror, line)
	}
}

// Tail returns up to maxLines of the most recent log entries.
func (l *Logbook) Tail(maxLines int) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) == 0 {
		return nil
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Stage returns a logger that prefixes entries with the stage identifier so
// interleaved runs stay readable.
func (l *Logbook) Stage(id string) *StageLog {
	return &StageLog{parent: l, prefix: "[" + id + "] "}
}

// StageLog scopes logbook entries to one pipeline stage.
type StageLog struct {
	parent *Logbook
	prefix string
}

// Info appends a stage-scoped informational entry.
func (s *StageLog) Info(format string, args ...any) {
	if s == nil {
		return
	}
	s.parent.Append(LevelInfo, s.prefix+fmt.Sprintf(format, args...))
}

// Warn appends a stage-scoped warning entry.
func (s *StageLog) Warn(format string, args ...any) {
	if s == nil {
		return
	}
	s.parent.Append(LevelWarn, s.prefix+fmt.Sprintf(format, args...))
}

// Error appends a stage-scoped error entry.
func (s *StageLog) Error(format string, args ...any) {
	if s == nil {
		return
	}
	s.parent.Append(LevelError, s.prefix+fmt.Sprintf(format, args...))
}
