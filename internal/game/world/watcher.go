package world

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for further changes before
// reloading.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the atlas whenever a sector file in dir changes.
//
// A reload that fails to load or validate is logged and the atlas keeps its
// previous contents.
type Watcher struct {
	dir      string
	atlas    *Atlas
	debounce time.Duration
	logger   *zap.Logger
	fsw      *fsnotify.Watcher

	// OnReload, if set, is called after every reload attempt.
	OnReload func(sectors int, err error)

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a Watcher on dir.
//
// Precondition: dir must exist; atlas and logger must be non-nil.
// Postcondition: Returns a Watcher that is not yet running, or an error.
func NewWatcher(dir string, atlas *Atlas, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:      dir,
		atlas:    atlas,
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Reload loads the sector directory and swaps it into the atlas.
func (w *Watcher) Reload() error {
	sectors, err := LoadSectors(w.dir)
	if err == nil {
		err = w.atlas.Replace(sectors)
	}
	if w.OnReload != nil {
		w.OnReload(len(sectors), err)
	}
	if err != nil {
		w.logger.Warn("sector reload failed; keeping previous atlas",
			zap.String("dir", w.dir),
			zap.Error(err),
		)
		return err
	}
	w.logger.Info("sectors reloaded",
		zap.String("dir", w.dir),
		zap.Int("sectors", len(sectors)),
		zap.Int("systems", w.atlas.SystemCount()),
	)
	return nil
}

// Start watches until Stop is called. It implements server.Service.
func (w *Watcher) Start() error {
	w.Run(w.ctx)
	return nil
}

// Stop ends a running Start and releases the fsnotify handle.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.fsw.Close()
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isYAML(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("sector file changed",
				zap.String("file", ev.Name),
				zap.String("op", ev.Op.String()),
			)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("sector watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			_ = w.Reload()
		}
	}
}
