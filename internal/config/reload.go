package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/perch/internal/config/watcher"
)

// Reloader reloads the configuration whenever one of its files changes.
type Reloader struct {
	opts    Options
	w       *watcher.Watcher
	onLoad  func(*Result)
	onError func(error)
}

// NewReloader watches every file the layers of opts may read. onLoad
// receives each successful reload; onError receives load and watch errors.
// Directories that do not exist are not watched.
func NewReloader(opts Options, candidates []string, onLoad func(*Result), onError func(error), debounce time.Duration) (*Reloader, error) {
	r := &Reloader{opts: opts, onLoad: onLoad, onError: onError}
	if r.onError == nil {
		r.onError = func(error) {}
	}

	w, err := watcher.New(watcher.WithDebounce(debounce), watcher.WithErrorHandler(r.onError))
	if err != nil {
		return nil, err
	}
	for _, path := range candidates {
		if _, err := os.Stat(filepath.Dir(path)); err != nil {
			continue
		}
		if err := w.Watch(path); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	w.OnChange(func(watcher.Event) { r.reload() })
	r.w = w
	return r, nil
}

func (r *Reloader) reload() {
	res, err := Load(r.opts)
	if err != nil {
		r.onError(err)
		return
	}
	r.onLoad(res)
}

// Watching returns the watched files.
func (r *Reloader) Watching() []string {
	return r.w.WatchedFiles()
}

// Close stops watching.
func (r *Reloader) Close() error {
	if err := r.w.Close(); err != nil && !errors.Is(err, watcher.ErrWatcherClosed) {
		return err
	}
	return nil
}
