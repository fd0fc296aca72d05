package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DBWatcher reports writes to a SQLite database file and its -wal and
// -journal companions. Bursts of events collapse into one pending signal.
type DBWatcher struct {
	watcher *fsnotify.Watcher
	base    string
	changes chan struct{}
	done    chan struct{}
}

// WatchDB starts watching the directory holding dbPath.
func WatchDB(dbPath string) (*DBWatcher, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &DBWatcher{
		watcher: watcher,
		base:    filepath.Base(abs),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one value per burst of database writes.
func (w *DBWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher.
func (w *DBWatcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.watcher.Close()
}

func (w *DBWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
				// A signal is already pending.
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Ignore errors, keep watching
		}
	}
}

func (w *DBWatcher) relevant(event fsnotify.Event) bool {
	if !strings.HasPrefix(filepath.Base(event.Name), w.base) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
