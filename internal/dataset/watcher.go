package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher evicts cached snapshots built from files under an fs blob root
// as soon as one of those files changes on disk.
type Watcher struct {
	root     string
	cache    *Cache
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	onChange func(key string)
}

// NewWatcher watches root and its subdirectories. onChange, when set, runs
// after each eviction with the changed blob key.
func NewWatcher(root string, cache *Cache, logger *zap.Logger, onChange func(key string)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{root: root, cache: cache, logger: logger, watcher: fw, onChange: onChange}
	if _, err := w.watchTree(root); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return w, nil
}

// watchTree adds dir and every directory below it, returning the files
// already present.
func (w *Watcher) watchTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// Run handles events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// Files may land in the directory before its watch is added.
			files, err := w.watchTree(ev.Name)
			if err != nil {
				w.logger.Warn("watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
			for _, path := range files {
				w.changed(path)
			}
			return
		}
	}
	w.changed(ev.Name)
}

func (w *Watcher) changed(path string) {
	key, ok := w.keyFor(path)
	if !ok {
		return
	}
	removed := w.cache.InvalidateSource("fs:" + key + "@")
	w.logger.Debug("source changed", zap.String("key", key), zap.Int("evicted", removed))
	if w.onChange != nil {
		w.onChange(key)
	}
}

// keyFor maps a file path to its blob key, skipping store bookkeeping files.
func (w *Watcher) keyFor(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	base := filepath.Base(rel)
	if strings.HasSuffix(base, ".meta") || strings.HasPrefix(base, ".tmp-") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	if err := w.watcher.Close(); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		return err
	}
	return nil
}
