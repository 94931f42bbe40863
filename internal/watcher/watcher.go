// Package watcher turns filesystem notifications under the source folder
// into settled route events.
//
// Directories are watched recursively; directories created later are
// added as they appear. Directory events themselves are never emitted.
// Every file event waits for the stability delay (dev.watch.delay) before
// it is delivered, so editors that write in several steps produce one
// event.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/logger"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/pkg/route"
)

// Config configures a Watcher.
type Config struct {
	// Paths are the directories to watch recursively.
	Paths []string

	// Ignore patterns, see ShouldIgnore. DefaultIgnore is always applied.
	Ignore []string

	// Delay is the stability delay.
	Delay time.Duration
}

// FromConfig returns the watcher configuration of a project: the whole
// source folder, so that files imported by routes are seen too.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Paths:  []string{cfg.Paths().Resolve(paths.Source)},
		Ignore: cfg.Dev.Ignore,
		Delay:  cfg.WatchDelay(),
	}
}

// Watcher watches directory trees.
type Watcher struct {
	config    Config
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	log       *zap.SugaredLogger
}

// New starts watching cfg.Paths. Events are delivered once Run is called.
func New(cfg Config) (*Watcher, error) {
	cfg.Ignore = append(append([]string(nil), DefaultIgnore...), cfg.Ignore...)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New("E240").Wrap(err)
	}

	w := &Watcher{
		config:    cfg,
		fs:        fsw,
		debouncer: NewDebouncer(cfg.Delay),
		log:       logger.Named("watcher"),
	}

	for _, root := range cfg.Paths {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, errors.New("E240").WithFile(root).Wrap(err)
		}
	}
	return w, nil
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ShouldIgnore(path, w.config.Ignore) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.log.Warnw("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Events returns the channel of settled events.
func (w *Watcher) Events() <-chan route.Event {
	return w.debouncer.Output()
}

// Run processes notifications until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if ShouldIgnore(path, w.config.Ignore) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				w.log.Warnw("failed to watch new directory", "path", path, "error", err)
			}
			w.created(path)
			return
		}
	}

	var kind route.EventKind
	switch {
	case event.Has(fsnotify.Create):
		kind = route.Created
	case event.Has(fsnotify.Write):
		kind = route.Updated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		kind = route.Deleted
	default:
		return
	}

	w.debouncer.Add(path, kind)
}

// created reports the files of a directory that appeared at once, e.g.
// moved into place. Their own create events may have been missed.
func (w *Watcher) created(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && ShouldIgnore(path, w.config.Ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if !ShouldIgnore(path, w.config.Ignore) {
			w.debouncer.Add(path, route.Created)
		}
		return nil
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fs.Close()
}
