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
	"fmt"
	"log/slog"
	"sync"
)

// ErrDepthExceeded marks a branch skipped by the nesting-depth guard.
var ErrDepthExceeded = errors.New("maximum eval nesting depth exceeded")

// Reporter receives recoverable extraction events.
//
// Description:
//
//	Extraction never writes to a process-wide output itself. Everything
//	an operator may want to see about skipped content goes through the
//	Reporter given to the Extractor.
//
// Thread Safety: Implementations must be safe for concurrent use when an
// Extractor is shared between goroutines.
type Reporter interface {
	// ParseFailure is called when a source at ec could not be tokenized.
	ParseFailure(ctx context.Context, ec Context, err error)

	// DepthExceeded is called when ec is deeper than limit and was skipped.
	DepthExceeded(ctx context.Context, ec Context, limit int)
}

// NopReporter discards all events.
type NopReporter struct{}

// ParseFailure implements Reporter.
func (NopReporter) ParseFailure(context.Context, Context, error) {}

// DepthExceeded implements Reporter.
func (NopReporter) DepthExceeded(context.Context, Context, int) {}

// SlogReporter logs events as warnings.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter creates a reporter writing to logger.
// A nil logger uses slog.Default().
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{logger: logger}
}

// ParseFailure implements Reporter.
func (r *SlogReporter) ParseFailure(ctx context.Context, ec Context, err error) {
	r.logger.WarnContext(ctx, "parsing error, any css classes used here might be purged",
		slog.Any("at", ec),
		slog.String("error", err.Error()),
	)
}

// DepthExceeded implements Reporter.
func (r *SlogReporter) DepthExceeded(ctx context.Context, ec Context, limit int) {
	r.logger.WarnContext(ctx, "eval nesting too deep, any css classes used here might be purged",
		slog.Any("at", ec),
		slog.Int("max_depth", limit),
	)
}

// EventKind classifies a recorded event.
type EventKind string

const (
	// EventParseFailure is a tokenization failure.
	EventParseFailure EventKind = "parse_failure"

	// EventDepthExceeded is a branch skipped by the depth guard.
	EventDepthExceeded EventKind = "depth_exceeded"
)

// Event is one recorded extraction event.
type Event struct {
	Kind    EventKind `json:"kind"`
	Context Context   `json:"context"`
	Err     error     `json:"-"`
	Message string    `json:"message"`
}

// Recorder collects events in memory.
//
// Thread Safety: Safe for concurrent use via sync.Mutex.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// ParseFailure implements Reporter.
func (r *Recorder) ParseFailure(_ context.Context, ec Context, err error) {
	r.add(Event{Kind: EventParseFailure, Context: ec, Err: err, Message: err.Error()})
}

// DepthExceeded implements Reporter.
func (r *Recorder) DepthExceeded(_ context.Context, ec Context, limit int) {
	err := fmt.Errorf("%w: level %d > %d", ErrDepthExceeded, ec.NestingLevel, limit)
	r.add(Event{Kind: EventDepthExceeded, Context: ec, Err: err, Message: err.Error()})
}

func (r *Recorder) add(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// MultiReporter fans events out to every reporter in order.
type MultiReporter []Reporter

// ParseFailure implements Reporter.
func (m MultiReporter) ParseFailure(ctx context.Context, ec Context, err error) {
	for _, r := range m {
		r.ParseFailure(ctx, ec, err)
	}
}

// DepthExceeded implements Reporter.
func (m MultiReporter) DepthExceeded(ctx context.Context, ec Context, limit int) {
	for _, r := range m {
		r.DepthExceeded(ctx, ec, limit)
	}
}
