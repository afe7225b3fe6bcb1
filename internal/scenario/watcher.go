package scenario

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/Funding/internal/store"
)

// Watcher reloads the engine's snapshot from a source on a fixed
// interval. When the source reports a version, reloads only happen after
// it changes.
type Watcher struct {
	engine   *Engine
	src      store.Store
	interval time.Duration
	logger   *slog.Logger

	version string

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewWatcher(e *Engine, src store.Store, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		engine:   e,
		src:      src,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start records the current source version and begins polling.
func (w *Watcher) Start(ctx context.Context) {
	if v, ok := w.src.(store.Versioned); ok {
		if version, err := v.Version(ctx); err == nil {
			w.version = version
		}
	}
	w.wg.Add(1)
	go w.loop(ctx)
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	var version string
	if v, ok := w.src.(store.Versioned); ok {
		var err error
		version, err = v.Version(ctx)
		if err != nil {
			w.logger.Warn("failed to read snapshot version", "error", err)
			return
		}
		if version == w.version {
			return
		}
	}

	if err := w.engine.Reload(ctx, w.src); err != nil {
		w.logger.Error("snapshot reload failed, keeping current snapshot", "error", err)
		return
	}
	w.version = version
	w.logger.Info("snapshot reloaded", "version", version)
}
