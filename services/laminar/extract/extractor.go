// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract recovers string literals from script source, following
// code passed to eval as further source.
package extract

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/laminar/services/laminar/token"
)

// tracer is the package tracer for extraction spans.
var tracer = otel.Tracer("laminar.extract")

// DefaultMaxDepth is the default eval nesting limit.
const DefaultMaxDepth = 32

// ExtractError is a fatal failure inside one artifact's extraction.
//
// It carries the coordinates of the level where the failure happened so the
// offending code can be located.
type ExtractError struct {
	// Context is the level that failed.
	Context Context

	// Position is the byte offset of the offending token within the source
	// of that level.
	Position int

	// Err is the cause, typically a *DecodeError.
	Err error
}

// Error implements error.
func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s at offset %d: %v", e.Context, e.Position, e.Err)
}

// Unwrap returns the cause.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	// MaxDepth is the deepest nesting level that is still analyzed.
	// Default: DefaultMaxDepth
	MaxDepth int

	// Reporter receives parse failures and depth-guard events.
	// Default: NopReporter
	Reporter Reporter

	// Snapshotter receives per-level diagnostic snapshots.
	// Default: NopSnapshotter
	Snapshotter Snapshotter
}

// DefaultExtractorOptions returns the default options.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		MaxDepth:    DefaultMaxDepth,
		Reporter:    NopReporter{},
		Snapshotter: NopSnapshotter{},
	}
}

// ExtractorOption is a functional option for configuring Extractor.
type ExtractorOption func(*ExtractorOptions)

// WithMaxDepth sets the nesting limit. Non-positive values keep the default.
func WithMaxDepth(depth int) ExtractorOption {
	return func(o *ExtractorOptions) {
		if depth > 0 {
			o.MaxDepth = depth
		}
	}
}

// WithReporter sets the event reporter. Nil keeps the current reporter.
func WithReporter(r Reporter) ExtractorOption {
	return func(o *ExtractorOptions) {
		if r != nil {
			o.Reporter = r
		}
	}
}

// WithSnapshotter sets the diagnostics snapshotter. Nil keeps the current one.
func WithSnapshotter(s Snapshotter) ExtractorOption {
	return func(o *ExtractorOptions) {
		if s != nil {
			o.Snapshotter = s
		}
	}
}

// Extractor walks token streams and collects decoded string literals.
//
// Description:
//
//	For every string token the Extractor decides whether the literal is the
//	sole argument of an eval call. Such literals are decoded and analyzed
//	as source in their own right, one nesting level deeper; their own text
//	is not collected. All other literals are decoded and collected.
//	Literals from nested levels come before those of the level that found
//	them, so output order is deterministic for a given source.
//
// Thread Safety:
//
//	Extractor holds no per-call state and is safe for concurrent use if
//	its Tokenizer, Reporter and Snapshotter are.
//
// Example:
//
//	extractor := NewExtractor(ast.NewJavaScriptTokenizer(),
//	    WithReporter(NewSlogReporter(logger)),
//	)
//	literals, err := extractor.Extract(ctx, source, "main.js")
type Extractor struct {
	tokenizer token.Tokenizer
	options   ExtractorOptions
}

// NewExtractor creates an Extractor around tokenizer.
//
// Inputs:
//
//	tokenizer - Lexer for the analyzed language. Must not be nil.
//	opts      - Functional options.
//
// Outputs:
//
//	*Extractor - Ready to use. Never nil.
func NewExtractor(tokenizer token.Tokenizer, opts ...ExtractorOption) *Extractor {
	if tokenizer == nil {
		panic("NewExtractor: tokenizer must not be nil")
	}
	options := DefaultExtractorOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Extractor{tokenizer: tokenizer, options: options}
}

// MaxDepth returns the configured nesting limit.
func (e *Extractor) MaxDepth() int {
	return e.options.MaxDepth
}

// Extract returns every literal in source, starting at nesting level 1.
//
// Inputs:
//
//	ctx      - Context for cancellation and tracing.
//	source   - Script source text.
//	sourceID - Artifact name used in events and errors.
//
// Outputs:
//
//	[]string - Decoded literals, nested levels first. Nil when none.
//	error    - *ExtractError when a literal cannot be decoded, or the
//	           context error. Parse failures are not errors.
func (e *Extractor) Extract(ctx context.Context, source, sourceID string) ([]string, error) {
	return e.ExtractAt(ctx, source, RootContext(sourceID))
}

// ExtractAt analyzes source at the coordinates in ec.
//
// Description:
//
//	Tokenizes source; a tokenization failure is reported and yields no
//	literals. String tokens are visited in order with a zero-based
//	occurrence counter. A token in eval-call position is decoded and
//	analyzed by a nested ExtractAt with ec.Child(occurrence); its results
//	go into the descendant collection. Any other string token is decoded
//	into the current-level collection. The result is the descendant
//	collection followed by the current-level collection.
//
//	A level deeper than MaxDepth is not analyzed: the reporter is told and
//	the branch yields nothing.
//
// Thread Safety: Safe for concurrent use.
func (e *Extractor) ExtractAt(ctx context.Context, source string, ec Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ec.NestingLevel > e.options.MaxDepth {
		e.options.Reporter.DepthExceeded(ctx, ec, e.options.MaxDepth)
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "Extractor.ExtractAt")
	defer span.End()
	span.SetAttributes(
		attribute.String("source_id", ec.SourceID),
		attribute.Int("nesting_level", ec.NestingLevel),
		attribute.Int("occurrence", ec.OccurrenceIndex),
	)

	e.options.Snapshotter.Code(ec, source)

	tokens, err := e.tokenizer.Tokenize(ctx, source)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		span.SetAttributes(attribute.Bool("parse_failure", true))
		e.options.Reporter.ParseFailure(ctx, ec, err)
		return nil, nil
	}

	e.options.Snapshotter.Tokens(ec, tokens)

	var descendants, current []string
	occurrence := 0
	evalCalls := 0
	for i, tok := range tokens {
		if tok.Kind != token.KindString {
			continue
		}
		occ := occurrence
		occurrence++

		value, err := DecodeStringLiteral(tok.Value)
		if err != nil {
			span.SetStatus(codes.Error, "decode failure")
			return nil, &ExtractError{Context: ec, Position: tok.Position, Err: err}
		}

		if !MatchEvalCall(tokens, i) {
			current = append(current, value)
			continue
		}

		evalCalls++
		nested, err := e.ExtractAt(ctx, value, ec.Child(occ))
		if err != nil {
			return nil, err
		}
		descendants = append(descendants, nested...)
	}

	e.options.Snapshotter.Strings(ec, current)

	span.SetAttributes(
		attribute.Int("tokens", len(tokens)),
		attribute.Int("strings", occurrence),
		attribute.Int("eval_calls", evalCalls),
	)

	if len(descendants) == 0 {
		return current, nil
	}
	return append(descendants, current...), nil
}
