package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is how long the watcher waits for a burst of arrivals to settle.
const DefaultDebounce = 5 * time.Second

// Watcher calls a trigger function when files matching a catalog's patterns
// appear below its base directories. Bursts of events are coalesced into one
// call after the debounce interval.
type Watcher struct {
	dirs     []string
	files    []string
	trigger  func(context.Context)
	debounce time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger

	watched map[string]bool
	ready   chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before the trigger fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherClock replaces the real clock, used in tests.
func WithWatcherClock(c clockwork.Clock) WatcherOption {
	return func(w *Watcher) { w.clock = c }
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher over the base directory globs (e.g. /dcom/*/sst)
// that fires trigger when a path matching one of filePatterns is created or written.
// Relative globs are resolved against the working directory.
func NewWatcher(baseDirs, filePatterns []string, trigger func(context.Context), opts ...WatcherOption) *Watcher {
	absDirs := make([]string, 0, len(baseDirs))
	for _, dir := range baseDirs {
		if abs, err := absPattern(dir); err == nil {
			dir = abs
		}
		absDirs = append(absDirs, dir)
	}
	w := &Watcher{
		dirs:     dirPatterns(absDirs),
		files:    filePatterns,
		trigger:  trigger,
		debounce: DefaultDebounce,
		clock:    clockwork.NewRealClock(),
		logger:   slog.New(slog.DiscardHandler),
		watched:  make(map[string]bool),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once the initial directory watches are in place.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	w.syncDirs(fsw)
	close(w.ready)

	var (
		timer   clockwork.Timer
		timerCh <-chan time.Time
	)
	arm := func() {
		if timer == nil {
			timer = w.clock.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		timerCh = timer.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			switch {
			case isDir(ev.Name):
				// A new dated or obs directory; files moved in with it raise no events.
				w.syncDirs(fsw)
				arm()
			case MatchesAny(ev.Name, w.files):
				arm()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "error", err)

		case <-timerCh:
			timerCh = nil
			w.trigger(ctx)
		}
	}
}

// syncDirs adds a watch for every existing directory matching the expanded patterns.
func (w *Watcher) syncDirs(fsw *fsnotify.Watcher) {
	for _, pattern := range w.dirs {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			w.logger.Warn("bad watch pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, dir := range matches {
			if w.watched[dir] || !isDir(dir) {
				continue
			}
			if err := fsw.Add(dir); err != nil {
				w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
				continue
			}
			w.watched[dir] = true
			w.logger.Debug("watching directory", "dir", dir)
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
