// Package watch reloads an engine when the files behind its virtual modules
// change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the debounce window applied to bursts of events.
const DefaultDelay = 100 * time.Millisecond

// Reloader is notified once per debounced burst of changes.
type Reloader interface {
	Reload()
}

// Watcher watches source files and directories and reloads its target.
type Watcher struct {
	fsw    *fsnotify.Watcher
	target Reloader
	delay  time.Duration
	logger *slog.Logger

	mu    sync.RWMutex
	files map[string]struct{} // watched files, matched by exact name
	dirs  map[string]struct{} // watched directory trees
}

// New creates a Watcher that reloads target. A zero delay uses DefaultDelay.
func New(target Reloader, delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:    fsw,
		target: target,
		delay:  delay,
		logger: logger,
		files:  map[string]struct{}{},
		dirs:   map[string]struct{}{},
	}, nil
}

// Add watches path. Files are watched through their parent directory so
// that editors replacing the file by rename are still seen; directories are
// watched recursively.
func (w *Watcher) Add(path string) error {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	if !info.IsDir() {
		if err := w.fsw.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.mu.Lock()
		w.files[path] = struct{}{}
		w.mu.Unlock()
		return nil
	}

	w.mu.Lock()
	w.dirs[path] = struct{}{}
	w.mu.Unlock()
	return w.addTree(path)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Close releases the underlying watcher. Run closes it on return as well.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watched returns the number of files and directory trees being watched.
func (w *Watcher) Watched() (files, dirs int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.files), len(w.dirs)
}

// relevant reports whether an event on name affects a watched source.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)

	w.mu.RLock()
	defer w.mu.RUnlock()
	if _, ok := w.files[name]; ok {
		return true
	}
	for dir := range w.dirs {
		if name == dir {
			return true
		}
		if rel, err := filepath.Rel(dir, name); err == nil && filepath.IsLocal(rel) {
			return true
		}
	}
	return false
}

// Run processes events until ctx is cancelled, then closes the underlying
// watcher. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			// New directories under a watched tree need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watch new directory failed", "path", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("source changed", "path", event.Name, "op", event.Op.String())
			if pending == 0 {
				timer = time.NewTimer(w.delay)
				fire = timer.C
			}
			pending++

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were lost; reload to be safe.
				w.target.Reload()
				continue
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-fire:
			w.logger.Info("reloading virtual files", "changes", pending)
			pending, fire = 0, nil
			w.target.Reload()
		}
	}
}
