// Package watch feeds media files dropped into the upload directory to the pipeline.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/linuxmatters/soundcheck/internal/config"
)

// Handler processes files that have settled. Paths that settle while a
// previous call is running are delivered together in the next call.
type Handler func(ctx context.Context, paths []string)

// Watcher debounces filesystem events per file and hands settled files to a Handler
type Watcher struct {
	dir        string
	extensions map[string]bool
	settle     time.Duration
	handle     Handler
	logger     hclog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

// New creates a Watcher for dir
func New(dir string, cfg config.WatchConfig, handle Handler, logger hclog.Logger) *Watcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Watcher{
		dir:        dir,
		extensions: exts,
		settle:     cfg.Settle,
		handle:     handle,
		logger:     logger.Named("watch"),
		pending:    make(map[string]*time.Timer),
		ready:      make(chan string, 64),
	}
}

// Run watches until ctx is cancelled. Cancellation is a clean shutdown and returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.done = make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.dispatch(ctx)
	}()

	w.logger.Info("watching for new media", "dir", w.dir, "settle", w.settle)

	defer func() {
		w.stopTimers()
		close(w.done)
		wg.Wait()
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)

		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.matches(event.Name) {
		return
	}
	w.logger.Debug("file event", "path", event.Name, "op", event.Op)
	w.schedule(event.Name)
}

// matches reports whether name is a media file worth processing.
// Hidden files cover editor swaps and in-progress temp outputs.
func (w *Watcher) matches(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(base))]
}

// schedule restarts the settle timer for path
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// dispatch hands settled paths to the handler, grouping whatever has queued up
func (w *Watcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case path := <-w.ready:
			paths := []string{path}
		drain:
			for {
				select {
				case p := <-w.ready:
					paths = append(paths, p)
				default:
					break drain
				}
			}
			w.logger.Info("processing new files", "count", len(paths))
			w.handle(ctx, paths)
		}
	}
}
