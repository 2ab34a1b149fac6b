// Package watch reports changes to class dump files in a docs directory, so
// the documentation cache can be invalidated and rebuilt.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jcdickinson/docview/internal/docs"
)

const DefaultDebounce = 300 * time.Millisecond

// Watcher calls onChange once per burst of dump file changes, with the base
// names of the files that changed.
type Watcher struct {
	dir          string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	onChange     func(changed []string)
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
	startOnce    sync.Once
}

func New(dir string, debounce time.Duration, onChange func(changed []string)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:          dir,
		watcher:      w,
		debounceTime: debounce,
		onChange:     onChange,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() { go w.watch(ctx) })
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.startOnce.Do(func() { close(w.doneCh) })
		<-w.doneCh
		w.watcher.Close()
	})
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	fireCh := make(chan struct{}, 1)
	changed := make(map[string]bool)
	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-w.stopCh:
			stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			changed[filepath.Base(event.Name)] = true

			stopTimer()
			debounceTimer = time.AfterFunc(w.debounceTime, func() {
				select {
				case fireCh <- struct{}{}:
				default:
				}
			})

		case <-fireCh:
			if len(changed) == 0 {
				continue
			}
			files := make([]string, 0, len(changed))
			for f := range changed {
				files = append(files, f)
			}
			sort.Strings(files)
			changed = make(map[string]bool)
			slog.Info("docs changed", "dir", w.dir, "files", files)
			w.onChange(files)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("docs watcher error", "error", err)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return docs.IsDumpFile(filepath.Base(event.Name))
}
