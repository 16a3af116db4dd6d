package localfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-corpus/internal/logger"
)

// ChangeType describes what happened to a watched file.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is a file event under a watched root.
type Change struct {
	Type ChangeType
	Path string
}

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// Watcher reports changes to files beneath a set of roots.
type Watcher struct {
	roots      []string
	exclusions []string
	watcher    *fsnotify.Watcher
	closed     bool
}

// NewWatcher creates a watcher over roots. Hidden entries, sidecars and
// paths containing any exclusion are ignored.
func NewWatcher(roots, exclusions []string) *Watcher {
	return &Watcher{roots: roots, exclusions: exclusions}
}

// Watch starts watching and returns a channel closed when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	if w.closed {
		return nil, ErrWatcherClosed
	}
	abs, err := absRoots(w.roots)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	for _, root := range abs {
		if err := w.addTree(fw, root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	w.watcher = fw

	changes := make(chan Change)
	go w.loop(ctx, fw, changes)
	return changes, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.closed = true
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, changes chan<- Change) {
	defer close(changes)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			change, ok := w.translate(fw, event)
			if !ok {
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("File watcher error: %v", err)
		}
	}
}

// translate maps an fsnotify event onto a Change, watching new directories.
func (w *Watcher) translate(fw *fsnotify.Watcher, event fsnotify.Event) (Change, bool) {
	if w.ignored(event.Name) {
		return Change{}, false
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fw, event.Name); err != nil {
				logger.Warn("Watching %s: %v", event.Name, err)
			}
			return Change{}, false
		}
		return Change{Type: ChangeCreated, Path: event.Name}, true
	case event.Has(fsnotify.Write):
		return Change{Type: ChangeUpdated, Path: event.Name}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return Change{Type: ChangeDeleted, Path: event.Name}, true
	}
	return Change{}, false
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, MetadataSuffix) {
		return true
	}
	for _, ex := range w.exclusions {
		if ex != "" && strings.Contains(path, ex) {
			return true
		}
	}
	return false
}

// addTree watches root and every visible directory beneath it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	if !info.IsDir() {
		return fw.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
