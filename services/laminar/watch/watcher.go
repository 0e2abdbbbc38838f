// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch triggers rescans when script assets change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/laminar/services/laminar/scan"
)

// DefaultDebounce is the quiet period before a batch of changes fires.
const DefaultDebounce = 250 * time.Millisecond

// ChangeFunc handles one batch of changed asset paths, relative to the
// watched directory with forward slashes, sorted.
type ChangeFunc func(ctx context.Context, changed []string)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Extensions selects the files that trigger a change.
	Extensions []string

	// Debounce is the quiet period that ends a batch.
	// Default: DefaultDebounce
	Debounce time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Watcher watches a directory tree and reports debounced batches of
// changed assets.
//
// Thread Safety: Run must be called at most once. The ChangeFunc runs on
// the watcher goroutine, so batches never overlap.
type Watcher struct {
	dir      string
	onChange ChangeFunc
	options  WatcherOptions
}

// NewWatcher creates a watcher rooted at dir.
func NewWatcher(dir string, onChange ChangeFunc, options WatcherOptions) *Watcher {
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Watcher{dir: dir, onChange: onChange, options: options}
}

// Run watches until ctx is done.
//
// Description:
//
//	Every directory under the root is watched; directories created later
//	are added as they appear. Hidden directories are skipped. Writes,
//	creates, renames and removals of matching files are collected until
//	no event arrives for the debounce period, then onChange is called
//	once with the batch.
//
// Outputs:
//
//	error - Nil when ctx ends; non-nil if the watcher cannot start or the
//	        event stream fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir, nil); err != nil {
		return err
	}
	w.options.Logger.Info("watching for changes",
		slog.String("dir", w.dir),
		slog.Any("extensions", w.options.Extensions),
	)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.options.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("watch: event stream closed")
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if strings.HasPrefix(filepath.Base(ev.Name), ".") {
						continue
					}
					// A directory moved in may already hold assets.
					queued := 0
					err := w.addTree(fw, ev.Name, func(rel string) {
						pending[rel] = struct{}{}
						queued++
					})
					if err != nil {
						w.options.Logger.Warn("watch: adding directory failed",
							slog.String("dir", ev.Name),
							slog.String("error", err.Error()),
						)
					}
					if queued > 0 {
						timer.Reset(w.options.Debounce)
					}
					continue
				}
			}
			rel, ok := w.relevant(ev)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(w.options.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watch: error stream closed")
			}
			w.options.Logger.Warn("watch: watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)

			w.options.Logger.Debug("assets changed", slog.Int("count", len(changed)))
			w.onChange(ctx, changed)
		}
	}
}

// relevant maps an event to a relative asset path if it should trigger.
func (w *Watcher) relevant(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	return w.assetPath(ev.Name)
}

// assetPath returns the slash-separated path of p relative to the root when
// p has a watched extension.
func (w *Watcher) assetPath(p string) (string, bool) {
	rel, err := filepath.Rel(w.dir, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if !scan.IsFileOfTypes(rel, w.options.Extensions) {
		return "", false
	}
	return rel, true
}

// addTree watches root and every non-hidden directory below it. When queue
// is non-nil, matching files already present are passed to it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string, queue func(rel string)) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if queue != nil {
				if rel, ok := w.assetPath(p); ok {
					queue(rel)
				}
			}
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watch: adding %s: %w", p, err)
		}
		return nil
	})
}
