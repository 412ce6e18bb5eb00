package policy

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes policy pack locations and fires a callback after edits
// settle. Used by the server to hot-reload the catalogue.
type Watcher struct {
	watcher  *fsnotify.Watcher
	log      *slog.Logger
	onChange func()
	debounce time.Duration
	done     chan struct{}
}

// NewWatcher starts watching the given directories and files. A nil error
// from every missing path is intentional: packs may appear later.
func NewWatcher(log *slog.Logger, paths []string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{
		watcher:  fsw,
		log:      log,
		onChange: onChange,
		debounce: 250 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := fsw.Add(path); err != nil {
			log.Warn("policy pack watch failed", "path", path, "error", err)
		}
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	fire := func() {
		if w.onChange != nil {
			w.onChange()
		}
	}
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("policy pack change", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, fire)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("policy pack watcher error", "error", err)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".json")
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
