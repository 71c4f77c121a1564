package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/fyrsmithlabs/debrief/internal/logging"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize catalog watcher")

// Invalidator is implemented by stores that cache catalogs.
type Invalidator interface {
	Invalidate()
}

// Watcher invalidates a store whenever a file under the catalog root changes.
// fsnotify is not recursive, so every directory is added individually and
// new directories are added as they appear.
type Watcher struct {
	root    string
	store   Invalidator
	watcher *fsnotify.Watcher
	logger  *logging.Logger
}

// NewWatcher creates a watcher for root. Call Run to start it.
func NewWatcher(root string, store Invalidator, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	cw := &Watcher{root: root, store: store, watcher: w, logger: logger}
	if err := cw.addTree(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	return cw, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "catalog watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn(ctx, "failed to watch new catalog directory",
					zap.String("path", ev.Name), zap.Error(err))
			}
		}
	}
	w.store.Invalidate()
	w.logger.Info(ctx, "catalog cache invalidated",
		zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
}
