package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"myai/internal/integration"
	"myai/internal/logger"
	"myai/internal/model"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Callback func(model.WatchEvent)

type Config struct {
	Debounce   time.Duration
	BufferSize int
	IgnoreList []string
}

type pathSpec struct {
	recursive bool
}

type callbackEntry struct {
	id int
	fn Callback
}

// Watcher turns raw fsnotify events into classified, per-(target,path)
// debounced WatchEvents. All debounce state lives in the run goroutine;
// the OS watch thread only ever touches fsnotify's own channels, and
// debounce timers hand completion back through fireCh.
type Watcher struct {
	mu        sync.Mutex
	cfg       Config
	fw        *fsnotify.Watcher
	paths     map[string]pathSpec
	patterns  map[model.WatchTarget][]string
	callbacks []callbackEntry
	nextCB    int
	running   bool
	doneCh    chan struct{}
	wg        sync.WaitGroup
}

type fireMsg struct {
	key string
	seq uint64
}

func New(cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}

	return &Watcher{
		cfg:      cfg,
		paths:    make(map[string]pathSpec),
		patterns: DefaultPatterns(),
	}
}

// AddPath registers a path to observe. Extra classification patterns,
// if given, extend the built-in set. Re-adding while running restarts
// observation of that path.
func (w *Watcher) AddPath(path string, recursive bool, patterns map[model.WatchTarget][]string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("watch path not found: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for target, pats := range patterns {
		w.patterns[target] = append(w.patterns[target], pats...)
	}

	_, existed := w.paths[abs]
	w.paths[abs] = pathSpec{recursive: recursive}

	if w.running {
		if existed {
			_ = w.fw.Remove(abs)
		}
		if err := w.observe(abs, recursive); err != nil {
			return err
		}
	}

	return nil
}

func (w *Watcher) RemovePath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[abs]; !ok {
		return fmt.Errorf("path not watched: %s", abs)
	}

	delete(w.paths, abs)
	if w.running {
		_ = w.fw.Remove(abs)
	}

	return nil
}

// AddCallback registers a consumer and returns a token for removal.
func (w *Watcher) AddCallback(fn Callback) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextCB++
	w.callbacks = append(w.callbacks, callbackEntry{id: w.nextCB, fn: fn})
	return w.nextCB
}

func (w *Watcher) RemoveCallback(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, cb := range w.callbacks {
		if cb.id == id {
			w.callbacks = append(w.callbacks[:i], w.callbacks[i+1:]...)
			return
		}
	}
}

// Start is idempotent.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.fw = fw

	for path, spec := range w.paths {
		if err := w.observe(path, spec.recursive); err != nil {
			_ = fw.Close()
			return err
		}
	}

	w.doneCh = make(chan struct{})
	w.running = true
	w.wg.Add(1)
	go w.run(fw, w.doneCh)

	logger.Log.Info("watcher started",
		zap.Int("paths", len(w.paths)))
	return nil
}

// Stop is idempotent. It releases all OS watch handles and cancels
// pending debounce timers.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}

	w.running = false
	close(w.doneCh)
	_ = w.fw.Close()
	w.mu.Unlock()

	w.wg.Wait()
	logger.Log.Info("watcher stopped")
}

func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// observe registers a path with fsnotify; caller holds w.mu.
func (w *Watcher) observe(path string, recursive bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch path not found: %w", err)
	}

	if !info.IsDir() || !recursive {
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	}

	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if err := w.fw.Add(p); err != nil {
				return fmt.Errorf("failed to watch %s: %w", p, err)
			}
			logger.Log.Debug("watching directory", zap.String("path", p))
		}

		return nil
	})
}

func (w *Watcher) run(fw *fsnotify.Watcher, doneCh chan struct{}) {
	defer w.wg.Done()

	pending := make(map[string]model.WatchEvent)
	seqs := make(map[string]uint64)
	timers := make(map[string]*time.Timer)
	fireCh := make(chan fireMsg, w.cfg.BufferSize)

	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-doneCh:
			logger.Log.Debug("watcher loop stopping")
			return

		case fsEvent, ok := <-fw.Events:
			if !ok {
				return
			}

			ev, matched := w.classifyRaw(fsEvent)
			if !matched {
				continue
			}

			key := string(ev.Target) + "|" + ev.Path
			seqs[key]++
			seq := seqs[key]
			pending[key] = ev

			if t, ok := timers[key]; ok {
				t.Stop()
			}
			timers[key] = time.AfterFunc(w.cfg.Debounce, func() {
				select {
				case fireCh <- fireMsg{key: key, seq: seq}:
				case <-doneCh:
				}
			})

		case msg := <-fireCh:
			// A fired timer only delivers if no newer event superseded it.
			if seqs[msg.key] != msg.seq {
				continue
			}

			ev, ok := pending[msg.key]
			if !ok {
				continue
			}
			delete(pending, msg.key)
			delete(timers, msg.key)

			w.deliver(ev)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}

			// Watch errors are non-fatal; keep observing.
			logger.Log.Error("watcher error", zap.Error(err))
		}
	}
}

// classifyRaw maps a raw fsnotify event to a classified WatchEvent.
// Directory events are consumed for watch bookkeeping only.
func (w *Watcher) classifyRaw(fsEvent fsnotify.Event) (model.WatchEvent, bool) {
	eventType, ok := toEventType(fsEvent.Op)
	if !ok {
		return model.WatchEvent{}, false
	}

	if shouldIgnore(fsEvent.Name, w.cfg.IgnoreList) {
		return model.WatchEvent{}, false
	}

	if fsEvent.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			w.maybeWatchNewDir(fsEvent.Name)
			return model.WatchEvent{}, false
		}
	}

	w.mu.Lock()
	target := classify(w.patterns, fsEvent.Name)
	w.mu.Unlock()

	if target == "" {
		return model.WatchEvent{}, false
	}

	ev := model.WatchEvent{
		Type:      eventType,
		Path:      fsEvent.Name,
		Target:    target,
		Timestamp: time.Now(),
	}

	// fsnotify reports a rename at its source path only; the
	// destination shows up as a separate create event.
	if eventType == model.EventMoved {
		ev.OldPath = fsEvent.Name
	}

	return ev, true
}

func (w *Watcher) maybeWatchNewDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for root, spec := range w.paths {
		if !spec.recursive || !strings.HasPrefix(dir, root+string(os.PathSeparator)) {
			continue
		}

		if err := w.fw.Add(dir); err != nil {
			logger.Log.Warn("failed to watch new directory",
				zap.String("path", dir),
				zap.Error(err))
		} else {
			logger.Log.Debug("added new directory to watch",
				zap.String("path", dir))
		}
		return
	}
}

func (w *Watcher) deliver(ev model.WatchEvent) {
	w.mu.Lock()
	callbacks := make([]callbackEntry, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		w.invoke(cb, ev)
	}
}

// invoke isolates one callback: a panicking consumer is logged and
// stays registered.
func (w *Watcher) invoke(cb callbackEntry, ev model.WatchEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("watch callback panicked",
				zap.Int("callback", cb.id),
				zap.String("path", ev.Path),
				zap.Any("panic", r))
		}
	}()

	cb.fn(ev)
}

func toEventType(op fsnotify.Op) (model.EventType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return model.EventCreated, true
	case op.Has(fsnotify.Write):
		return model.EventModified, true
	case op.Has(fsnotify.Remove):
		return model.EventDeleted, true
	case op.Has(fsnotify.Rename):
		return model.EventMoved, true
	default:
		return "", false
	}
}

func shouldIgnore(path string, ignoreList []string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")

	for _, part := range parts {
		for _, pattern := range ignoreList {
			matched, err := filepath.Match(pattern, part)
			if err == nil && matched {
				return true
			}
		}
	}

	return false
}

// DefaultPaths combines the managed base directory with every
// adapter-reported directory that exists. Adapter queries are
// best-effort; missing directories are skipped.
func DefaultPaths(baseDir string, mgr integration.Manager) []string {
	paths := []string{baseDir}

	if mgr == nil {
		return paths
	}

	for _, name := range mgr.ListAdapters() {
		a := mgr.GetAdapter(name)
		if a == nil {
			continue
		}

		dir := a.AgentDir()
		if dir == "" {
			continue
		}

		if _, err := os.Stat(dir); err != nil {
			continue
		}

		paths = append(paths, dir)
	}

	return paths
}
