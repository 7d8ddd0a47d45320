// Package control lets another process stop an active run by creating a
// file under .taskforge/signals.
package control

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/taskforge/internal/logging"
)

// StopFile is the signal file name that stops the active run.
const StopFile = "stop"

// pollInterval is the fallback check when the file watcher is unavailable
// or misses an event.
const pollInterval = 500 * time.Millisecond

// SignalsDir returns the signals directory for a project.
func SignalsDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".taskforge", "signals")
}

// RequestStop creates the stop file for a project.
func RequestStop(projectRoot string) error {
	dir := SignalsDir(projectRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create signals directory: %w", err)
	}
	content := []byte(time.Now().Format(time.RFC3339) + "\n")
	if err := os.WriteFile(filepath.Join(dir, StopFile), content, 0644); err != nil {
		return fmt.Errorf("write stop signal: %w", err)
	}
	return nil
}

// Watcher cancels a context when the stop file appears.
type Watcher struct {
	dir    string
	logger *logging.DebugLogger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWatcher prepares the signals directory and removes a stop file left
// by an earlier run.
func NewWatcher(projectRoot string, logger *logging.DebugLogger) (*Watcher, error) {
	dir := SignalsDir(projectRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create signals directory: %w", err)
	}
	if err := os.Remove(filepath.Join(dir, StopFile)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("clear stale stop signal: %w", err)
	}

	w := &Watcher{
		dir:    dir,
		logger: logger,
		done:   make(chan struct{}),
	}

	// Continue without watcher - polling still detects the file.
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log("[control] fsnotify unavailable, polling only: %v", err)
		return w, nil
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		logger.Log("[control] cannot watch %s, polling only: %v", dir, err)
		return w, nil
	}
	w.watcher = fw
	return w, nil
}

// Stopped reports whether the stop file exists.
func (w *Watcher) Stopped() bool {
	_, err := os.Stat(filepath.Join(w.dir, StopFile))
	return err == nil
}

// WithStop returns a context that is cancelled when the stop file appears,
// parent is done, or Close is called.
func (w *Watcher) WithStop(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.watcher != nil {
		events = w.watcher.Events
		errs = w.watcher.Errors
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		stop := func(how string) {
			w.logger.Log("[control] stop signal received (%s)", how)
			cancel()
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if filepath.Base(ev.Name) == StopFile && ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					stop("watch")
					return
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				w.logger.Log("[control] watcher error: %v", err)
			case <-ticker.C:
				if w.Stopped() {
					stop("poll")
					return
				}
			}
		}
	}()

	return ctx, cancel
}

// Close stops watching and waits for the watch goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		if w.watcher != nil {
			err = w.watcher.Close()
		}
	})
	return err
}
