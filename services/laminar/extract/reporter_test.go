// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogReporter_ParseFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewSlogReporter(logger).ParseFailure(context.Background(), RootContext("main.js").Child(2), errors.New("boom"))

	out := buf.String()
	for _, want := range []string{"level=WARN", "might be purged", "at.source=main.js", "at.level=2", "at.occurrence=2", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestSlogReporter_DepthExceeded(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewSlogReporter(logger).DepthExceeded(context.Background(), RootContext("a.js"), 7)

	if !strings.Contains(buf.String(), "max_depth=7") {
		t.Errorf("expected limit in output: %s", buf.String())
	}
}

func TestNewSlogReporter_NilLogger(t *testing.T) {
	if r := NewSlogReporter(nil); r.logger == nil {
		t.Error("expected default logger")
	}
}

func TestRecorder_EventsIsCopy(t *testing.T) {
	rec := &Recorder{}
	if rec.Events() != nil {
		t.Error("expected nil events on empty recorder")
	}
	rec.DepthExceeded(context.Background(), RootContext("a.js"), 3)

	events := rec.Events()
	events[0].Message = "changed"
	if rec.Events()[0].Message == "changed" {
		t.Error("Events must return a copy")
	}
	if !strings.Contains(rec.Events()[0].Message, "level 1 > 3") {
		t.Errorf("unexpected message %q", rec.Events()[0].Message)
	}
}
