package store

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of fs events an editor save produces.
const reloadDebounce = 200 * time.Millisecond

// CatalogWatcher reloads the catalog seed file when it changes on disk.
type CatalogWatcher struct {
	path     string
	catalog  *Catalog
	onReload func()
	fw       *fsnotify.Watcher
	done     chan struct{}
}

// NewCatalogWatcher watches path and reloads it into catalog on change.
// onReload, when non-nil, runs after each successful reload.
func NewCatalogWatcher(path string, catalog *Catalog, onReload func()) (*CatalogWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace files on save, which would
	// otherwise drop the watch on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &CatalogWatcher{
		path:     path,
		catalog:  catalog,
		onReload: onReload,
		fw:       fw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher.
func (w *CatalogWatcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *CatalogWatcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-timerC:
			w.reload()
			timer = nil
			timerC = nil

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Error("catalog watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *CatalogWatcher) reload() {
	if err := w.catalog.LoadFile(w.path); err != nil {
		slog.Error("catalog reload failed", "path", w.path, "error", err)
		return
	}
	slog.Info("catalog reloaded", "path", w.path, "products", w.catalog.Len())
	if w.onReload != nil {
		w.onReload()
	}
}
