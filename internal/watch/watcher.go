// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reports changes to a single dataset file so it can be
// re-ingested after it is saved.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Default timings.
const (
	DefaultDebounce    = 250 * time.Millisecond
	DefaultMinInterval = 2 * time.Second
)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the file must be quiet before OnChange fires.
	Debounce time.Duration

	// MinInterval is the minimum time between two OnChange calls.
	MinInterval time.Duration

	// OnChange is called from the watcher goroutine with the file path.
	OnChange func(path string)

	Logger *zap.Logger
}

// Watcher watches one file. Editors often replace a file instead of writing
// it in place, so the parent directory is watched and events are filtered
// by name.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	limiter  *rate.Limiter
	onChange func(string)
	logger   *zap.Logger

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string, opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, errors.New("watch: OnChange is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		fsw:      fsw,
		debounce: opts.Debounce,
		limiter:  rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		onChange: opts.OnChange,
		logger:   opts.Logger.With(zap.String("module", "watch"), zap.String("path", abs)),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and waits for the watcher goroutines to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) processPending() {
	defer w.wg.Done()
	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case now := <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if due && w.limiter.AllowN(now, 1) {
				w.pending = time.Time{}
			} else {
				due = false
			}
			w.mu.Unlock()

			if due {
				w.logger.Debug("file changed")
				w.onChange(w.path)
			}
		}
	}
}
