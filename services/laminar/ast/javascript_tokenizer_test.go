// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AleutianAI/laminar/services/laminar/token"
)

// stringValues returns the Value of every String token.
func stringValues(tokens []token.Token) []string {
	var out []string
	for _, tok := range tokens {
		if tok.Kind == token.KindString {
			out = append(out, tok.Value)
		}
	}
	return out
}

func TestJavaScriptTokenizer_Tokenize_Empty(t *testing.T) {
	tokens, err := NewJavaScriptTokenizer().Tokenize(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}

func TestJavaScriptTokenizer_Tokenize_EvalCall(t *testing.T) {
	tokens, err := NewJavaScriptTokenizer().Tokenize(context.Background(), `eval("x");`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []token.Token{
		{Kind: token.KindIdentifier, Value: "eval", Position: 0},
		{Kind: token.KindPunctuator, Value: "(", Position: 4},
		{Kind: token.KindString, Value: `"x"`, Position: 5},
		{Kind: token.KindPunctuator, Value: ")", Position: 8},
		{Kind: token.KindPunctuator, Value: ";", Position: 9},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: got %+v, want %+v", i, tokens[i], want[i])
		}
	}
}

func TestJavaScriptTokenizer_Tokenize_StringsInOrder(t *testing.T) {
	src := `var a = "foo bar"; let b = 'baz'; el.className = "btn \"x\"";`
	tokens, err := NewJavaScriptTokenizer().Tokenize(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := stringValues(tokens)
	want := []string{`"foo bar"`, `'baz'`, `"btn \"x\""`}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("string %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if tokens[0].Kind != token.KindOther || tokens[0].Value != "var" {
		t.Errorf("expected keyword token first, got %+v", tokens[0])
	}
	if tokens[1].Kind != token.KindIdentifier || tokens[1].Value != "a" {
		t.Errorf("expected identifier a, got %+v", tokens[1])
	}
	if tokens[2].Kind != token.KindPunctuator || tokens[2].Value != "=" {
		t.Errorf("expected punctuator =, got %+v", tokens[2])
	}
}

func TestJavaScriptTokenizer_Tokenize_DropsComments(t *testing.T) {
	src := "// \"not a literal\"\n/* 'nor this' */\n\"a\";"
	tokens, err := NewJavaScriptTokenizer().Tokenize(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := stringValues(tokens)
	if len(got) != 1 || got[0] != `"a"` {
		t.Errorf("expected only \"a\", got %v", got)
	}
}

func TestJavaScriptTokenizer_Tokenize_PropertyIdentifier(t *testing.T) {
	tokens, err := NewJavaScriptTokenizer().Tokenize(context.Background(), `obj.eval("x");`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, tok := range tokens {
		if tok.Is(token.KindIdentifier, "eval") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected eval property to be an identifier token: %v", tokens)
	}
}

func TestJavaScriptTokenizer_Tokenize_TemplateSubstitution(t *testing.T) {
	src := "var t = `a ${\"inner\"} b`;"
	tokens, err := NewJavaScriptTokenizer().Tokenize(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := stringValues(tokens)
	if len(got) != 1 || got[0] != `"inner"` {
		t.Errorf("expected substitution string, got %v", got)
	}
	sawTemplate := false
	for _, tok := range tokens {
		if tok.Kind == token.KindOther && len(tok.Value) > 0 && tok.Value[0] == '`' {
			sawTemplate = true
		}
	}
	if !sawTemplate {
		t.Error("expected template string as an Other token")
	}
}

func TestJavaScriptTokenizer_Tokenize_RegexIsNotString(t *testing.T) {
	tokens, err := NewJavaScriptTokenizer().Tokenize(context.Background(), `var r = /a"b/g;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stringValues(tokens); len(got) != 0 {
		t.Errorf("expected no string tokens, got %v", got)
	}
}

func TestJavaScriptTokenizer_Tokenize_ParseFailure(t *testing.T) {
	inputs := []string{
		`"unterminated`,
		`var = ;`,
		`function (`,
	}
	for _, src := range inputs {
		_, err := NewJavaScriptTokenizer().Tokenize(context.Background(), src)
		if err == nil {
			t.Errorf("%q: expected parse failure", src)
			continue
		}
		if !errors.Is(err, token.ErrParse) {
			t.Errorf("%q: expected ErrParse, got %v", src, err)
		}
		var perr *token.ParseError
		if !errors.As(err, &perr) {
			t.Errorf("%q: expected *token.ParseError, got %T", src, err)
		}
	}
}

func TestJavaScriptTokenizer_Tokenize_TooLarge(t *testing.T) {
	tokenizer := NewJavaScriptTokenizer(WithMaxSourceSize(4))
	_, err := tokenizer.Tokenize(context.Background(), `'abcdef'`)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if !errors.Is(err, token.ErrParse) {
		t.Errorf("expected size failure to be a parse failure, got %v", err)
	}
}

func TestJavaScriptTokenizer_Tokenize_InvalidUTF8(t *testing.T) {
	_, err := NewJavaScriptTokenizer().Tokenize(context.Background(), "'\xff'")
	if !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

func TestJavaScriptTokenizer_Tokenize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJavaScriptTokenizer().Tokenize(ctx, `"a";`)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, token.ErrParse) {
		t.Error("cancellation must not be reported as a parse failure")
	}
}

func TestJavaScriptTokenizer_Tokenize_Concurrent(t *testing.T) {
	tokenizer := NewJavaScriptTokenizer()
	src := `document.body.className = "page page-home";`

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens, err := tokenizer.Tokenize(context.Background(), src)
			if err != nil {
				errs <- err
				return
			}
			if got := stringValues(tokens); len(got) != 1 {
				errs <- errors.New("unexpected string count")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestJavaScriptTokenizer_Metadata(t *testing.T) {
	tokenizer := NewJavaScriptTokenizer()
	if tokenizer.Language() != "javascript" {
		t.Errorf("unexpected language %q", tokenizer.Language())
	}
	if len(tokenizer.Extensions()) == 0 {
		t.Error("expected extensions")
	}
}

func TestJavaScriptTokenizer_Fingerprint(t *testing.T) {
	var _ token.Fingerprinter = (*JavaScriptTokenizer)(nil)

	def := NewJavaScriptTokenizer().Fingerprint()
	if def != NewJavaScriptTokenizer().Fingerprint() {
		t.Error("fingerprint must be stable for equal settings")
	}
	if small := NewJavaScriptTokenizer(WithMaxSourceSize(50)).Fingerprint(); small == def {
		t.Errorf("fingerprint %q must change with the source size limit", small)
	}
}

// Adjacent literals lex cleanly but do not form a program. The whole level
// is rejected rather than keeping the literals around the syntax error.
func TestJavaScriptTokenizer_Tokenize_LexesButDoesNotParse(t *testing.T) {
	tokens, err := NewJavaScriptTokenizer().Tokenize(context.Background(), `"a" "b"`)
	if !errors.Is(err, token.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if tokens != nil {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}
