package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/docent/logging"
)

// DefaultDebounce is how long the watcher collects events before flushing
// them to the callback, so editors that write a file several times per save
// trigger one re-index.
const DefaultDebounce = 500 * time.Millisecond

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Debounce time.Duration
	Logger   logging.Logger
}

// Watcher observes a docs directory and reports changed markdown files,
// debounced, as paths relative to the directory root.
type Watcher struct {
	docsDir  string
	watcher  *fsnotify.Watcher
	onChange func(paths []string)
	debounce time.Duration
	logger   logging.Logger

	mu      sync.Mutex
	pending map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for docsDir invoking onChange with batches of
// changed files.
func NewWatcher(docsDir string, onChange func(paths []string), optFns ...func(o *WatcherOptions)) (*Watcher, error) {
	opts := WatcherOptions{
		Debounce: DefaultDebounce,
		Logger:   logging.NewNoOpLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		docsDir:  docsDir,
		watcher:  fsWatcher,
		onChange: onChange,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		pending:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers the directory tree and begins processing events.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.docsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // keep walking
		}
		if d.IsDir() {
			if addErr := w.watcher.Add(path); addErr != nil {
				w.logger.Warn("failed to watch directory", "path", path, "error", addErr)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk docs dir: %w", err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()

	return nil
}

// Stop ends event processing and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.docsDir, event.Name)
	if err != nil {
		return
	}

	// New directories must be watched for the files they will contain.
	if event.Has(fsnotify.Create) {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if addErr := w.watcher.Add(event.Name); addErr != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", addErr)
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		w.pending[rel] = true
		w.mu.Unlock()
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) flushPending() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	w.logger.Debug("watcher flushing changes", "files", len(paths))
	if w.onChange != nil {
		w.onChange(paths)
	}
}
