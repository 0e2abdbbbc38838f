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
	"fmt"
	"log/slog"
)

// Context identifies one recursive extraction call.
//
// Context is a value: a nested call receives a derived copy and can never
// change its caller's coordinates. It carries no extraction logic.
type Context struct {
	// SourceID names the artifact being analyzed.
	SourceID string

	// NestingLevel is the eval nesting depth, starting at 1.
	NestingLevel int

	// OccurrenceIndex identifies the call among its siblings. The top level
	// uses 1; nested calls use the zero-based index of the string token
	// they were spawned from.
	OccurrenceIndex int
}

// RootContext returns the context for a top-level artifact.
func RootContext(sourceID string) Context {
	return Context{SourceID: sourceID, NestingLevel: 1, OccurrenceIndex: 1}
}

// Child derives the context of a nested call spawned by the string token at
// the given per-level occurrence.
func (c Context) Child(occurrence int) Context {
	return Context{
		SourceID:        c.SourceID,
		NestingLevel:    c.NestingLevel + 1,
		OccurrenceIndex: occurrence,
	}
}

// String renders the context as "source (level occurrence)".
func (c Context) String() string {
	return fmt.Sprintf("%s (%d %d)", c.SourceID, c.NestingLevel, c.OccurrenceIndex)
}

// LogValue implements slog.LogValuer.
func (c Context) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", c.SourceID),
		slog.Int("level", c.NestingLevel),
		slog.Int("occurrence", c.OccurrenceIndex),
	)
}
