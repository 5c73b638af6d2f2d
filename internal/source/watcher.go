package source

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last change before
// it fires.
const DefaultDebounce = 2 * time.Second

// Watcher watches the inbox and calls OnChange once a burst of writes has
// settled.
type Watcher struct {
	dir           string
	onChange      func()
	watcher       *fsnotify.Watcher
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
}

func NewWatcher(dir string, onChange func()) *Watcher {
	return &Watcher{
		dir:           dir,
		onChange:      onChange,
		debounceDelay: DefaultDebounce,
		stopChan:      make(chan struct{}),
	}
}

// SetDebounce overrides DefaultDebounce. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounceDelay = d }

// Start watches the inbox root. Subdirectories other than ProcessedDir are
// added as they appear.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher
	log.Printf("Inbox watcher started for: %s", w.dir)

	go w.processEvents()
	return nil
}

func (w *Watcher) Stop() error {
	close(w.stopChan)
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Inbox watcher error: %v", err)
		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Removals are our own MarkProcessed moves; chmod is noise.
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if filepath.Base(event.Name) == ProcessedDir {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		w.watcher.Add(event.Name)
	}

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.fire)
	w.mu.Unlock()
}

func (w *Watcher) fire() {
	select {
	case <-w.stopChan:
		return
	default:
	}
	log.Printf("Inbox watcher detected changes in %s", w.dir)
	w.onChange()
}
