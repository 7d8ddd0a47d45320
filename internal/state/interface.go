package state

import (
	"io"
	"time"
)

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// RunStore persists run history. The CLI depends on this interface rather
// than the SQLite implementation.
type RunStore interface {
	io.Closer
	Migrator
	RecordRun(r *Run, tasks []RunTask) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]Run, error)
	ListRunTasks(runID string) ([]RunTask, error)
	MarkInterrupted() (int64, error)
	PurgeOldRuns(olderThan time.Duration) (int64, error)
}

// Compile-time verification that DB implements all interfaces.
var (
	_ RunStore = (*DB)(nil)
	_ Migrator = (*DB)(nil)
)
