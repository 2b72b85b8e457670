package datasource

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
)

// DefaultWatchDebounce collapses the burst of events an editor save produces.
const DefaultWatchDebounce = 300 * time.Millisecond

// FixtureWatcher reloads a Memory data source when its fixture file changes.
// The parent directory is watched so that editors which save by rename keep
// triggering reloads.
type FixtureWatcher struct {
	path     string
	target   *Memory
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	timer    *time.Timer
	reloaded func(error)

	done chan struct{}
	wg   sync.WaitGroup
}

// WatchFixtures starts watching path and replaces target's contents after
// each change. A file that fails to parse is logged and the previous
// contents stay in place.
func WatchFixtures(path string, target *Memory, log *zap.SugaredLogger) (*FixtureWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Configuration(err, "fixtures path %s", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fixture watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Configuration(err, "watch fixtures directory %s", filepath.Dir(abs))
	}

	fw := &FixtureWatcher{
		path:     abs,
		target:   target,
		watcher:  w,
		debounce: DefaultWatchDebounce,
		logger:   logger.OrNop(log),
		done:     make(chan struct{}),
	}
	fw.wg.Add(1)
	go fw.loop()
	return fw, nil
}

// OnReload registers fn to be called after every reload attempt.
func (fw *FixtureWatcher) OnReload(fn func(error)) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.reloaded = fn
}

func (fw *FixtureWatcher) loop() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.done:
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.logger.Debugw("Fixture file changed", logger.FieldPath, ev.Name, "op", ev.Op.String())
			fw.schedule()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warnw("Fixture watcher error", logger.FieldError, err)
		}
	}
}

func (fw *FixtureWatcher) schedule() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.reload)
}

func (fw *FixtureWatcher) reload() {
	select {
	case <-fw.done:
		return
	default:
	}

	fx, err := LoadFixtures(fw.path)
	if err == nil {
		err = fw.target.Replace(context.Background(), fx)
	}
	if err != nil {
		fw.logger.Errorw("Fixture reload failed, keeping previous directory",
			logger.FieldPath, fw.path,
			logger.FieldError, err,
			logger.FieldErrorCategory, errors.CategoryOf(err),
		)
	} else {
		fw.logger.Infow("Fixtures reloaded",
			logger.FieldPath, fw.path,
			"companies", len(fx.Companies),
			"products", len(fx.Products),
		)
	}

	fw.mu.Lock()
	fn := fw.reloaded
	fw.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// Close stops watching. Pending reloads are dropped.
func (fw *FixtureWatcher) Close() error {
	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()

	select {
	case <-fw.done:
		return nil
	default:
		close(fw.done)
	}
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}
