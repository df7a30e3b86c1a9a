package keymap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when the underlying watcher shuts down unexpectedly.
var ErrWatcherClosed = errors.New("watcher closed")

// WaitForChange blocks until path is written, created, renamed or removed, or ctx is done.
// The parent directory is watched so editors that replace the file are still seen.
func WaitForChange(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			return err
		}
	}
}

// Reload replaces the bindings of source with the contents of path.
// On error the registry keeps its previous bindings for source.
func (r *Registry) Reload(source, path string) (int, error) {
	km, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	added, err := r.ReplaceSource(source, km)
	if err != nil {
		return 0, err
	}
	return len(added), nil
}
