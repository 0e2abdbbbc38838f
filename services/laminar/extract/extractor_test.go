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
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/AleutianAI/laminar/services/laminar/ast"
	"github.com/AleutianAI/laminar/services/laminar/token"
)

// =============================================================================
// Helpers
// =============================================================================

// levelSnapshot records what a Snapshotter saw for one level.
type levelSnapshot struct {
	ctx     Context
	source  string
	tokens  int
	strings []string
}

// recordingSnapshotter keeps snapshots in call order.
type recordingSnapshotter struct {
	mu    sync.Mutex
	code  []levelSnapshot
	lists []levelSnapshot
}

func (r *recordingSnapshotter) Code(ec Context, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = append(r.code, levelSnapshot{ctx: ec, source: source})
}

func (r *recordingSnapshotter) Tokens(Context, []token.Token) {}

func (r *recordingSnapshotter) Strings(ec Context, literals []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, levelSnapshot{ctx: ec, strings: append([]string(nil), literals...)})
}

func newTestExtractor(opts ...ExtractorOption) *Extractor {
	return NewExtractor(ast.NewJavaScriptTokenizer(), opts...)
}

func assertLiterals(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("literals = %q, want %q", got, want)
	}
}

// =============================================================================
// Extractor.Extract Tests
// =============================================================================

func TestExtractor_Extract_LiteralsInSourceOrder(t *testing.T) {
	src := `var a = "x"; var b = 'y z'; f("w"); el.className = "btn btn-primary";`

	got, err := newTestExtractor().Extract(context.Background(), src, "main.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"x", "y z", "w", "btn btn-primary"})
}

func TestExtractor_Extract_DecodesEscapes(t *testing.T) {
	src := `var a = "tab\there"; var b = 'it\'s';`

	got, err := newTestExtractor().Extract(context.Background(), src, "main.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"tab\there", "it's"})
}

func TestExtractor_Extract_EvalDescendantsFirst(t *testing.T) {
	src := `var a = "outer"; eval("var b = 'inner1'; var c = 'inner2';"); var d = "last";`

	got, err := newTestExtractor().Extract(context.Background(), src, "bundle.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"inner1", "inner2", "outer", "last"})

	for _, lit := range got {
		if lit == "var b = 'inner1'; var c = 'inner2';" {
			t.Error("eval argument itself must not be collected")
		}
	}
}

func TestExtractor_Extract_TripleNesting(t *testing.T) {
	src := `eval(eval("eval(\"'cls-a'\")"))`
	snap := &recordingSnapshotter{}

	got, err := newTestExtractor(WithSnapshotter(snap)).Extract(context.Background(), src, "app.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"cls-a"})

	wantLevels := []Context{
		{SourceID: "app.js", NestingLevel: 1, OccurrenceIndex: 1},
		{SourceID: "app.js", NestingLevel: 2, OccurrenceIndex: 0},
		{SourceID: "app.js", NestingLevel: 3, OccurrenceIndex: 0},
	}
	if len(snap.code) != len(wantLevels) {
		t.Fatalf("expected %d levels, got %d", len(wantLevels), len(snap.code))
	}
	for i, want := range wantLevels {
		if snap.code[i].ctx != want {
			t.Errorf("level %d context = %+v, want %+v", i, snap.code[i].ctx, want)
		}
	}
	if snap.code[2].source != "'cls-a'" {
		t.Errorf("innermost source = %q", snap.code[2].source)
	}
}

func TestExtractor_Extract_EvalWithTwoArguments(t *testing.T) {
	got, err := newTestExtractor().Extract(context.Background(), `eval("a", "b");`, "main.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"a", "b"})
}

func TestExtractor_Extract_SiblingOccurrences(t *testing.T) {
	src := `"x"; eval("'a'"); "y"; eval("'b'");`
	snap := &recordingSnapshotter{}

	got, err := newTestExtractor(WithSnapshotter(snap)).Extract(context.Background(), src, "main.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"a", "b", "x", "y"})

	var nested []Context
	for _, s := range snap.code {
		if s.ctx.NestingLevel == 2 {
			nested = append(nested, s.ctx)
		}
	}
	want := []Context{
		{SourceID: "main.js", NestingLevel: 2, OccurrenceIndex: 1},
		{SourceID: "main.js", NestingLevel: 2, OccurrenceIndex: 3},
	}
	if !reflect.DeepEqual(nested, want) {
		t.Errorf("nested contexts = %+v, want %+v", nested, want)
	}
}

func TestExtractor_Extract_StringsSnapshotExcludesDescendants(t *testing.T) {
	snap := &recordingSnapshotter{}
	_, err := newTestExtractor(WithSnapshotter(snap)).Extract(context.Background(), `"top"; eval("'deep'");`, "main.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range snap.lists {
		switch s.ctx.NestingLevel {
		case 1:
			assertLiterals(t, s.strings, []string{"top"})
		case 2:
			assertLiterals(t, s.strings, []string{"deep"})
		}
	}
}

func TestExtractor_Extract_NestedParseFailureIsRecoverable(t *testing.T) {
	rec := &Recorder{}
	src := `var x = "keep"; eval("not js (((");`

	got, err := newTestExtractor(WithReporter(rec)).Extract(context.Background(), src, "main.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"keep"})

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Kind != EventParseFailure {
		t.Errorf("expected parse failure event, got %s", ev.Kind)
	}
	want := Context{SourceID: "main.js", NestingLevel: 2, OccurrenceIndex: 1}
	if ev.Context != want {
		t.Errorf("event context = %+v, want %+v", ev.Context, want)
	}
	if !errors.Is(ev.Err, token.ErrParse) {
		t.Errorf("expected ErrParse, got %v", ev.Err)
	}
}

func TestExtractor_Extract_TopLevelParseFailure(t *testing.T) {
	rec := &Recorder{}

	got, err := newTestExtractor(WithReporter(rec)).Extract(context.Background(), `var = "x";`, "broken.js")
	if err != nil {
		t.Fatalf("parse failure must not be an error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no literals, got %q", got)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].Context != RootContext("broken.js") {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestExtractor_Extract_DepthGuard(t *testing.T) {
	src := `var k = "keep"; eval(eval("eval(\"'cls-a'\")"));`

	rec := &Recorder{}
	got, err := newTestExtractor(WithMaxDepth(2), WithReporter(rec)).Extract(context.Background(), src, "deep.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"keep"})

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != EventDepthExceeded {
		t.Errorf("expected depth event, got %s", events[0].Kind)
	}
	if events[0].Context.NestingLevel != 3 {
		t.Errorf("expected level 3, got %d", events[0].Context.NestingLevel)
	}
	if !errors.Is(events[0].Err, ErrDepthExceeded) {
		t.Errorf("expected ErrDepthExceeded, got %v", events[0].Err)
	}

	got, err = newTestExtractor().Extract(context.Background(), src, "deep.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLiterals(t, got, []string{"cls-a", "keep"})
}

func TestExtractor_Extract_DecodeFailureIsFatal(t *testing.T) {
	tokenizer := token.TokenizerFunc(func(_ context.Context, source string) ([]token.Token, error) {
		switch source {
		case "outer":
			return []token.Token{
				ident("eval"), punct("("), str(`"inner"`), punct(")"),
				str(`"fine"`),
			}, nil
		case "inner":
			return []token.Token{
				str(`"ok"`),
				{Kind: token.KindString, Value: `"\x4"`, Position: 12},
			}, nil
		}
		return nil, nil
	})

	got, err := NewExtractor(tokenizer).Extract(context.Background(), "outer", "bad.js")
	if err == nil {
		t.Fatal("expected decode failure to propagate")
	}
	if got != nil {
		t.Errorf("expected nil literals, got %q", got)
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}

	var xerr *ExtractError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExtractError, got %T", err)
	}
	want := Context{SourceID: "bad.js", NestingLevel: 2, OccurrenceIndex: 0}
	if xerr.Context != want {
		t.Errorf("error context = %+v, want %+v", xerr.Context, want)
	}
	if xerr.Position != 12 {
		t.Errorf("error position = %d, want 12", xerr.Position)
	}
}

func TestExtractor_Extract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &Recorder{}
	_, err := newTestExtractor(WithReporter(rec)).Extract(ctx, `"a";`, "main.js")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(rec.Events()) != 0 {
		t.Error("cancellation must not be reported as a parse failure")
	}
}

func TestExtractor_Extract_NoStrings(t *testing.T) {
	got, err := newTestExtractor().Extract(context.Background(), `var a = 1 + 2;`, "main.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %q", got)
	}
}

func TestNewExtractor_Defaults(t *testing.T) {
	e := newTestExtractor(WithMaxDepth(0), WithReporter(nil), WithSnapshotter(nil))
	if e.MaxDepth() != DefaultMaxDepth {
		t.Errorf("expected default depth %d, got %d", DefaultMaxDepth, e.MaxDepth())
	}
	if _, ok := e.options.Reporter.(NopReporter); !ok {
		t.Errorf("expected NopReporter, got %T", e.options.Reporter)
	}
}

func TestNewExtractor_NilTokenizerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewExtractor(nil)
}

func TestContext_Child(t *testing.T) {
	root := RootContext("a.js")
	child := root.Child(4)

	if root != (Context{SourceID: "a.js", NestingLevel: 1, OccurrenceIndex: 1}) {
		t.Errorf("root changed: %+v", root)
	}
	if child != (Context{SourceID: "a.js", NestingLevel: 2, OccurrenceIndex: 4}) {
		t.Errorf("unexpected child %+v", child)
	}
	if child.String() != "a.js (2 4)" {
		t.Errorf("unexpected string %q", child.String())
	}
}

func TestMultiReporter(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := MultiReporter{a, b, NopReporter{}}
	m.ParseFailure(context.Background(), RootContext("x"), errors.New("bad"))
	m.DepthExceeded(context.Background(), RootContext("x").Child(0), 1)

	if len(a.Events()) != 2 || len(b.Events()) != 2 {
		t.Errorf("expected both recorders to see 2 events: %d, %d", len(a.Events()), len(b.Events()))
	}
}
