package kb

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a Library when rule files in its override directory
// change. Rapid saves are debounced; a rebuild failure keeps the
// previously active programs.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	library  *Library
	dir      string
	pending  map[string]time.Time
	settle   time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	reloads  int
	failures int
}

// NewWatcher creates a watcher over the library's rules directory.
func NewWatcher(library *Library, dir string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		fsw:     fsw,
		library: library,
		dir:     dir,
		pending: make(map[string]time.Time),
		settle:  500 * time.Millisecond,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.fsw.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.logger.Info("watching rules directory", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

// Stop halts the event loop and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("closing rules watcher", zap.Error(err))
	}
}

// Reloads reports how many reloads have been applied.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Failures reports how many rebuild attempts were rejected.
func (w *Watcher) Failures() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failures
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rules watcher error", zap.Error(err))
		case <-ticker.C:
			w.applySettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".mg") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// applySettled reloads once per batch of changes that have sat
// unchanged past the settle window.
func (w *Watcher) applySettled() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.settle {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}

	if err := w.library.Reload(); err != nil {
		w.mu.Lock()
		w.failures++
		w.mu.Unlock()
		w.logger.Warn("rule reload rejected, keeping previous programs",
			zap.Strings("changed", settled), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.logger.Info("rule programs reloaded", zap.Strings("changed", settled))
}
