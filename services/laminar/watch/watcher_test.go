// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
	notify  chan struct{}
}

func newBatchRecorder() *batchRecorder {
	return &batchRecorder{notify: make(chan struct{}, 16)}
}

func (b *batchRecorder) onChange(_ context.Context, changed []string) {
	b.mu.Lock()
	b.batches = append(b.batches, changed)
	b.mu.Unlock()
	b.notify <- struct{}{}
}

func (b *batchRecorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-b.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batches[len(b.batches)-1]
}

func startWatcher(t *testing.T, dir string, rec *batchRecorder) {
	t.Helper()
	w := NewWatcher(dir, rec.onChange, WatcherOptions{
		Extensions: []string{".js"},
		Debounce:   50 * time.Millisecond,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Give the watcher time to register directories.
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_BatchesMatchingChanges(t *testing.T) {
	dir := t.TempDir()
	rec := newBatchRecorder()
	startWatcher(t, dir, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.js"), []byte(`"b"`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte(`"a"`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte(`.a{}`), 0o600))

	assert.Equal(t, []string{"a.js", "b.js"}, rec.wait(t))
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	rec := newBatchRecorder()
	startWatcher(t, dir, rec)

	sub := filepath.Join(dir, "chunks")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.js"), []byte(`"c"`), 0o600))

	assert.Equal(t, []string{"chunks/c.js"}, rec.wait(t))
}

func TestWatcher_MissingDir(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), func(context.Context, []string) {}, WatcherOptions{})
	assert.Error(t, w.Run(context.Background()))
}

func TestWatcher_DirectoryMovedIn(t *testing.T) {
	dir := t.TempDir()
	staging := filepath.Join(t.TempDir(), "build")
	require.NoError(t, os.MkdirAll(filepath.Join(staging, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "js", "app.js"), []byte(`"a"`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "main.js"), []byte(`"m"`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "style.css"), []byte(`.a{}`), 0o600))

	rec := newBatchRecorder()
	startWatcher(t, dir, rec)

	require.NoError(t, os.Rename(staging, filepath.Join(dir, "build")))

	assert.Equal(t, []string{"build/js/app.js", "build/main.js"}, rec.wait(t))
}
