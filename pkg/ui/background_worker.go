// This file implements the BackgroundWorker that reloads a concept tree
// file off the UI thread whenever it changes on disk.
package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/generator"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is loading a new tree.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string // "load", "index"
	Cause   error
	Time    time.Time
	Retries int
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// WorkerConfig configures the BackgroundWorker.
type WorkerConfig struct {
	Path          string
	DebounceDelay time.Duration
	Limits        model.Limits
	Program       *tea.Program
	Logger        *slog.Logger
}

// BackgroundWorker owns the file watcher, coalesces bursts of changes, and
// indexes new trees before handing them to the UI.
type BackgroundWorker struct {
	path   string
	limits model.Limits
	logger *slog.Logger

	mu         sync.RWMutex
	state      WorkerState
	dirty      bool // a change came in while processing
	started    bool
	tree       *model.Tree
	lastHash   string
	lastError  *WorkerError
	errorCount int

	watcher *generator.Watcher
	program *tea.Program

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBackgroundWorker creates a worker for cfg.Path. With an empty path the
// worker does nothing.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = generator.DefaultDebounce
	}
	if cfg.Limits == (model.Limits{}) {
		cfg.Limits = model.DefaultLimits()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	w := &BackgroundWorker{
		path:    cfg.Path,
		limits:  cfg.Limits,
		logger:  cfg.Logger,
		program: cfg.Program,
		state:   WorkerIdle,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	if cfg.Path != "" {
		fw, err := generator.NewWatcher(cfg.Path,
			generator.WithDebounceDuration(cfg.DebounceDelay),
			generator.WithErrorHandler(func(err error) {
				cfg.Logger.Warn("watch error", "path", cfg.Path, "err", err)
			}),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		w.watcher = fw
	}

	return w, nil
}

// Start begins watching for file changes. Start is idempotent.
func (w *BackgroundWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.watcher == nil {
		close(w.done)
		return nil
	}
	if err := w.watcher.Start(); err != nil {
		return err
	}
	go w.processLoop()
	return nil
}

// Stop halts the worker. Stop is idempotent.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()
	if w.watcher != nil {
		w.watcher.Stop()
	}

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// TriggerRefresh reloads the file now. It has no effect once stopped.
func (w *BackgroundWorker) TriggerRefresh() {
	w.mu.Lock()
	switch w.state {
	case WorkerStopped:
		w.mu.Unlock()
		return
	case WorkerProcessing:
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	go w.process()
}

// Tree returns the most recently loaded tree (may be nil).
func (w *BackgroundWorker) Tree() *model.Tree {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tree
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastError returns the most recent error, nil if the last load succeeded.
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// LastHash returns the content hash of the last loaded tree.
func (w *BackgroundWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

func (w *BackgroundWorker) processLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.watcher.Changed():
			w.process()
		}
	}
}

func (w *BackgroundWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	tree := w.load()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if tree != nil {
		w.tree = tree
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	w.mu.Unlock()

	if w.program != nil && tree != nil {
		w.program.Send(TreeReadyMsg{Topic: tree.Root().Label, Tree: tree, Source: w.path})
	}

	if wasDirty {
		go w.process()
	}
}

// safeCompute executes fn and recovers from any panics.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{Phase: phase, Cause: err, Time: time.Now()}
		}
	}()
	return result
}

func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

func (w *BackgroundWorker) fail(err *WorkerError) {
	w.recordError(err)
	w.logger.Warn("reload failed", "path", w.path, "err", err)
	if w.program != nil {
		w.program.Send(GenerationErrorMsg{Topic: w.path, Err: err})
	}
}

// load reads and indexes the file. It returns nil when loading fails or
// the content is unchanged since the last load.
func (w *BackgroundWorker) load() *model.Tree {
	if w.path == "" {
		return nil
	}
	start := time.Now()

	var concept model.Concept
	var data []byte
	if err := w.safeCompute("load", func() error {
		var err error
		concept, err = generator.LoadFile(w.path)
		if err != nil {
			return err
		}
		data, err = model.Export(concept)
		return err
	}); err != nil {
		w.fail(err)
		return nil
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	w.mu.RLock()
	unchanged := hash == w.lastHash
	w.mu.RUnlock()
	if unchanged {
		w.logger.Debug("reload skipped, content unchanged", "hash", hashPrefix(hash))
		w.recordError(nil)
		return nil
	}

	var tree *model.Tree
	if err := w.safeCompute("index", func() error {
		var err error
		tree, err = model.NewTree(concept, w.limits)
		return err
	}); err != nil {
		w.fail(err)
		return nil
	}

	w.recordError(nil)
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	w.logger.Debug("reloaded tree",
		"path", w.path,
		"nodes", tree.Len(),
		"elapsed", time.Since(start),
		"hash", hashPrefix(hash))
	return tree
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
