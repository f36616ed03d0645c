package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/refscope/internal/debug"
)

// StateWatcher reloads the persisted UI state when the file changes on
// disk (for example, edited by another refscope instance) and invokes
// the registered callback with the fresh state.
type StateWatcher struct {
	path     string
	onChange func(UIState)
	debounce time.Duration

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewStateWatcher creates a watcher for the state file at path.
// The callback runs on the watcher's goroutine.
func NewStateWatcher(path string, debounce time.Duration, onChange func(UIState)) *StateWatcher {
	return &StateWatcher{
		path:     path,
		onChange: onChange,
		debounce: debounce,
	}
}

// Start begins watching. Starting an already-running watcher is a no-op.
func (w *StateWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors and SaveState replace the file by
	// rename, which watching the file itself would miss.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})

	w.wg.Add(1)
	go w.loop(watcher, w.stopCh)
	return nil
}

func (w *StateWatcher) loop(watcher *fsnotify.Watcher, stopCh chan struct{}) {
	defer w.wg.Done()

	var pending *time.Timer
	var pendingCh <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce bursts (temp write + rename counts as several events)
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				pendingCh = pending.C
			} else {
				pending.Reset(w.debounce)
			}
		case <-pendingCh:
			pending = nil
			pendingCh = nil
			state, err := LoadState(w.path)
			if err != nil {
				debug.Printf("state reload failed: %v\n", err)
				continue
			}
			w.onChange(state)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			debug.Printf("state watcher error: %v\n", err)
		case <-stopCh:
			if pending != nil {
				pending.Stop()
			}
			return
		}
	}
}

// Stop halts watching and waits for the goroutine to exit. Idempotent.
func (w *StateWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.watcher.Close()
	w.mu.Unlock()

	w.wg.Wait()
}
