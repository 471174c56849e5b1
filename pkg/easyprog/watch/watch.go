// Package watch re-runs easy_prog scripts when their files change.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when a Watcher is created with a zero debounce.
const DefaultDebounce = 200 * time.Millisecond

// RunFunc runs one script.
type RunFunc func(path string)

// Watcher monitors scripts and re-runs each one after it changes
type Watcher struct {
	watcher  *fsnotify.Watcher
	scripts  []string        // absolute paths, in the order given
	watched  map[string]bool // scripts by absolute path
	debounce time.Duration
	run      RunFunc
	stdout   io.Writer
	stderr   io.Writer

	mu   sync.Mutex
	runs uint64 // completed runs, including the initial ones
}

// New creates a watcher for paths. Directories are watched rather than the
// files themselves, so editors that save by renaming a temporary file are
// still noticed.
func New(paths []string, debounce time.Duration, run RunFunc, stdout, stderr io.Writer) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("nothing to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsWatcher,
		watched:  make(map[string]bool),
		debounce: debounce,
		run:      run,
		stdout:   stdout,
		stderr:   stderr,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
		if w.watched[abs] {
			continue
		}
		w.watched[abs] = true
		w.scripts = append(w.scripts, abs)

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsWatcher.Add(dir); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run runs every script once, then again after each change, until ctx is
// done. It closes the underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for _, path := range w.scripts {
		w.logInfo("watching %s", path)
		w.runScript(path)
	}

	// Changes are collected until the files have been quiet for the debounce
	// period, then each changed script runs once.
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			// Only handle write and create events
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.watched[abs] {
				continue
			}

			pending[abs] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			for _, path := range w.scripts {
				if pending[path] {
					w.logInfo("changed: %s", path)
					w.runScript(path)
				}
			}
			clear(pending)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *Watcher) runScript(path string) {
	w.run(path)
	w.mu.Lock()
	w.runs++
	w.mu.Unlock()
}

// Runs returns how many script runs have completed.
func (w *Watcher) Runs() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

func (w *Watcher) logInfo(format string, args ...any) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...any) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
