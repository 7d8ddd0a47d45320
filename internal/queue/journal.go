package queue

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// LogLevel classifies a journal entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "INFO"
	LevelSuccess LogLevel = "SUCCESS"
	LevelWarning LogLevel = "WARNING"
	LevelError   LogLevel = "ERROR"
)

// LogEntry is one line of the queue's execution journal.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

// String formats the entry as "[timestamp] [LEVEL] message".
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] [%s] %s", e.Time.Format(time.RFC3339), e.Level, e.Message)
}

// journal is the in-memory execution log kept for reports.
type journal struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (j *journal) add(level LogLevel, format string, args ...interface{}) LogEntry {
	e := LogEntry{Time: time.Now(), Level: level, Message: fmt.Sprintf(format, args...)}
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
	return e
}

func (j *journal) snapshot() []LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]LogEntry(nil), j.entries...)
}

func (j *journal) reset() {
	j.mu.Lock()
	j.entries = nil
	j.mu.Unlock()
}

// ExportLogs renders entries one per line.
func ExportLogs(entries []LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
