package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/da0x/oc/errors"
	"github.com/da0x/oc/logger"
)

// FileWatcher watches a file for changes and triggers debounced callbacks.
// `oc watch` uses it to regenerate outputs when a model file is saved.
type FileWatcher struct {
	path           string
	watcher        *fsnotify.Watcher
	callbacks      []ChangeCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	done           chan struct{}
}

// ChangeCallback is called after the watched file settles following a change.
type ChangeCallback func(path string) error

// NewFileWatcher creates a watcher for the given file with the given debounce period.
func NewFileWatcher(path string, debounce time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", path)
	}

	return &FileWatcher{
		path:           path,
		watcher:        watcher,
		debouncePeriod: debounce,
		done:           make(chan struct{}),
	}, nil
}

// OnChange registers a callback to be called when the file changes.
func (fw *FileWatcher) OnChange(callback ChangeCallback) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.callbacks = append(fw.callbacks, callback)
}

// Start begins watching for file changes.
func (fw *FileWatcher) Start() {
	go fw.watchLoop()
}

// Stop shuts the watcher down.
func (fw *FileWatcher) Stop() {
	close(fw.done)
	fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Only react to Write or Create events; editors often
			// replace files instead of writing in place.
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				logger.Debugw("Watcher detected change",
					"file", event.Name,
					"op", event.Op.String())
				fw.scheduleCallbacks()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Watcher error", "error", err)

		case <-fw.done:
			return
		}
	}
}

// scheduleCallbacks debounces rapid file changes before firing callbacks
func (fw *FileWatcher) scheduleCallbacks() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debouncePeriod, func() {
		fw.mu.RLock()
		callbacks := make([]ChangeCallback, len(fw.callbacks))
		copy(callbacks, fw.callbacks)
		fw.mu.RUnlock()

		for _, cb := range callbacks {
			if err := cb(fw.path); err != nil {
				logger.Errorw("Watch callback failed",
					"file", fw.path,
					"error", err)
			}
		}
	})
}
