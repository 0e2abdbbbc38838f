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
	"fmt"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/laminar/services/laminar/token"
)

// JavaScriptTokenizer lexes JavaScript source into tokens using tree-sitter.
//
// Description:
//
//	The source is parsed with tree-sitter-javascript and the leaves of the
//	syntax tree are emitted in source order. String literals are single
//	tokens holding their raw text, quotes included. Comments are dropped.
//	Template strings and regex literals are single Other tokens; the
//	expressions inside template substitutions are tokenized normally.
//
//	A tree that needed error recovery is reported as a parse failure, so
//	fragments that are not JavaScript (HTML snippets, plain prose) yield no
//	tokens at all.
//
// Thread Safety:
//
//	JavaScriptTokenizer is safe for concurrent use. Each Tokenize call
//	creates its own tree-sitter parser instance.
//
// Example:
//
//	tokenizer := NewJavaScriptTokenizer()
//	tokens, err := tokenizer.Tokenize(ctx, `el.className = "btn btn-primary"`)
//	if err != nil {
//	    return fmt.Errorf("tokenize: %w", err)
//	}
type JavaScriptTokenizer struct {
	options JavaScriptTokenizerOptions
}

// JavaScriptTokenizerOptions configures JavaScriptTokenizer behavior.
type JavaScriptTokenizerOptions struct {
	// MaxSourceSize is the maximum source size in bytes.
	// Larger sources fail with ErrFileTooLarge.
	// Default: 10MB
	MaxSourceSize int
}

// DefaultJavaScriptTokenizerOptions returns the default options.
func DefaultJavaScriptTokenizerOptions() JavaScriptTokenizerOptions {
	return JavaScriptTokenizerOptions{
		MaxSourceSize: 10 * 1024 * 1024, // 10MB
	}
}

// JavaScriptTokenizerOption is a functional option for configuring JavaScriptTokenizer.
type JavaScriptTokenizerOption func(*JavaScriptTokenizerOptions)

// WithMaxSourceSize sets the maximum source size for tokenizing.
// Non-positive values keep the default.
func WithMaxSourceSize(size int) JavaScriptTokenizerOption {
	return func(o *JavaScriptTokenizerOptions) {
		if size > 0 {
			o.MaxSourceSize = size
		}
	}
}

// NewJavaScriptTokenizer creates a JavaScriptTokenizer with the given options.
func NewJavaScriptTokenizer(opts ...JavaScriptTokenizerOption) *JavaScriptTokenizer {
	options := DefaultJavaScriptTokenizerOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &JavaScriptTokenizer{options: options}
}

// Language returns the language name for this tokenizer.
func (t *JavaScriptTokenizer) Language() string {
	return "javascript"
}

// Extensions returns the file extensions this tokenizer handles.
func (t *JavaScriptTokenizer) Extensions() []string {
	return []string{".js", ".mjs", ".cjs"}
}

// Fingerprint identifies the settings that affect the token stream.
// Implements token.Fingerprinter.
func (t *JavaScriptTokenizer) Fingerprint() string {
	return fmt.Sprintf("javascript:max_source_size=%d", t.options.MaxSourceSize)
}

// Tokenize lexes JavaScript source.
//
// Inputs:
//
//	ctx    - Context for cancellation. Checked before and after parsing.
//	source - JavaScript source text.
//
// Outputs:
//
//	[]token.Token - Tokens in source order. Empty for empty source.
//	error         - *token.ParseError when the source cannot be lexed, or
//	                the context error when canceled.
//
// Thread Safety: This method is safe for concurrent use.
func (t *JavaScriptTokenizer) Tokenize(ctx context.Context, source string) ([]token.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("javascript tokenize canceled before start: %w", err)
	}

	if len(source) > t.options.MaxSourceSize {
		return nil, &token.ParseError{
			Offset: -1,
			Reason: fmt.Sprintf("%d bytes exceeds limit of %d", len(source), t.options.MaxSourceSize),
			Err:    ErrFileTooLarge,
		}
	}
	if !utf8.ValidString(source) {
		return nil, &token.ParseError{Offset: -1, Err: ErrInvalidContent}
	}

	ctx, span := tracer.Start(ctx, "JavaScriptTokenizer.Tokenize")
	defer span.End()

	content := []byte(source)

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("javascript tokenize canceled: %w", ctxErr)
		}
		span.SetStatus(codes.Error, "tree-sitter parse failed")
		return nil, &token.ParseError{Offset: -1, Reason: "tree-sitter parse failed", Err: err}
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("javascript tokenize canceled after tree-sitter: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		offset, reason := firstErrorNode(root)
		span.SetStatus(codes.Error, reason)
		return nil, &token.ParseError{Offset: offset, Reason: reason}
	}

	tokens := collectTokens(root, content)

	span.SetAttributes(
		attribute.Int("source_bytes", len(content)),
		attribute.Int("tokens", len(tokens)),
	)
	return tokens, nil
}

// collectTokens walks the tree depth first, left to right, and emits tokens.
func collectTokens(root *sitter.Node, content []byte) []token.Token {
	tokens := make([]token.Token, 0, 64)

	stack := make([]*sitter.Node, 0, 64)
	stack = append(stack, root)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}

		nodeType := node.Type()
		switch nodeType {
		case jsNodeComment, jsNodeHTMLComment:
			continue

		case jsNodeString:
			tokens = append(tokens, newToken(token.KindString, node, content))
			continue

		case jsNodeRegex:
			tokens = append(tokens, newToken(token.KindOther, node, content))
			continue

		case jsNodeTemplateString:
			tokens = append(tokens, newToken(token.KindOther, node, content))
			// Only the substitutions hold code.
			for i := int(node.ChildCount()) - 1; i >= 0; i-- {
				child := node.Child(i)
				if child != nil && child.Type() == jsNodeTemplateSubstitution {
					stack = append(stack, child)
				}
			}
			continue
		}

		childCount := int(node.ChildCount())
		if childCount == 0 {
			tokens = append(tokens, newToken(leafKind(node, content), node, content))
			continue
		}
		for i := childCount - 1; i >= 0; i-- {
			stack = append(stack, node.Child(i))
		}
	}

	return tokens
}

// leafKind classifies a leaf node that has no special handling.
func leafKind(node *sitter.Node, content []byte) token.Kind {
	if jsIdentifierNodes[node.Type()] {
		return token.KindIdentifier
	}
	if node.IsNamed() {
		return token.KindOther
	}
	if isPunctuation(string(content[node.StartByte():node.EndByte()])) {
		return token.KindPunctuator
	}
	return token.KindOther
}

// newToken builds a token spanning the node's source text.
func newToken(kind token.Kind, node *sitter.Node, content []byte) token.Token {
	return token.Token{
		Kind:     kind,
		Value:    string(content[node.StartByte():node.EndByte()]),
		Position: int(node.StartByte()),
	}
}

// isPunctuation reports whether s is non-empty and made only of punctuation
// or symbol runes.
func isPunctuation(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// firstErrorNode finds the first ERROR or MISSING node in document order.
func firstErrorNode(root *sitter.Node) (int, string) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		if node.IsMissing() {
			return int(node.StartByte()), fmt.Sprintf("missing %q", node.Type())
		}
		if node.Type() == jsNodeError {
			return int(node.StartByte()), "unexpected input"
		}
		if !node.HasError() {
			continue
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, node.Child(i))
		}
	}
	return -1, "syntax error"
}
