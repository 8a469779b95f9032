package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a catalog file when it changes on disk.
//
// Changes are debounced so an editor's write-rename-chmod sequence yields
// one reload. Files that fail to parse are logged and skipped; the last
// good catalog stays in effect.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   zerolog.Logger

	onReload func(*Catalog)
	onError  func(error)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for path. onReload receives each valid
// reloaded catalog; it runs on a timer goroutine.
func NewWatcher(path string, onReload func(*Catalog), logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     path,
		watcher:  fw,
		debounce: 150 * time.Millisecond,
		logger:   logger.With().Str("component", "catalog.watcher").Logger(),
		onReload: onReload,
	}, nil
}

// OnError sets a callback for reloads that fail validation.
func (w *Watcher) OnError(fn func(error)) { w.onError = fn }

// Start watches until ctx is canceled. Run it in its own goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	// fsnotify watches directories; editors often replace the file.
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)

	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error().Err(err).Str("dir", dir).Msg("failed to watch catalog directory")
		return err
	}
	w.logger.Info().Str("file", w.path).Msg("watching catalog")

	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("error closing watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.logger.Debug().Str("op", event.Op.String()).Msg("catalog changed")
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err != nil {
		w.logger.Error().Err(err).Msg("catalog reload failed")
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.logger.Info().Int("packages", c.Len()).Msg("catalog reloaded")
	if w.onReload != nil {
		w.onReload(c)
	}
}
