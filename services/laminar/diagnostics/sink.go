// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diagnostics writes debug snapshots of an extraction run to disk.
//
// Description:
//
//	FileSink implements extract.Snapshotter and adds asset-level and
//	run-level dumps. Nothing is computed or written while the sink is
//	disabled. Layout under the debug directory:
//
//	  <name>-<level>-<occ>-0-code.js
//	  <name>-<level>-<occ>.1.tokens.json
//	  <name>-<level>-<occ>.2.strings.json
//	  strings/<name>.1.distinct-tokens-from-strings
//	  strings/<name>.2.valid-class-names-from-strings
//	  strings/-valid-class-names
//	  strings/-filtered-class-names
//
//	Path separators in asset names become "-".
package diagnostics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/AleutianAI/laminar/services/laminar/candidates"
	"github.com/AleutianAI/laminar/services/laminar/extract"
	"github.com/AleutianAI/laminar/services/laminar/token"
)

// DefaultDir is the debug directory used when none is configured.
const DefaultDir = ".purgecss-laminar-debug"

// FileSink writes diagnostic artifacts under a directory.
//
// Thread Safety: Safe for concurrent use. Distinct assets write distinct
// files; run-level files are written once per run by the caller.
type FileSink struct {
	dir     string
	enabled bool
	logger  *slog.Logger
	written atomic.Int64
}

// NewFileSink creates a sink rooted at dir. An empty dir uses DefaultDir.
// A disabled sink accepts every call and writes nothing.
func NewFileSink(dir string, enabled bool, logger *slog.Logger) *FileSink {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSink{dir: dir, enabled: enabled, logger: logger}
}

// Enabled reports whether the sink writes files.
func (s *FileSink) Enabled() bool { return s != nil && s.enabled }

// Dir returns the debug directory.
func (s *FileSink) Dir() string { return s.dir }

// Written returns the number of files written so far.
func (s *FileSink) Written() int64 { return s.written.Load() }

// =============================================================================
// extract.Snapshotter
// =============================================================================

// Code writes the raw source analyzed at one level.
func (s *FileSink) Code(ec extract.Context, source string) {
	s.write(fmt.Sprintf("%s-%d-%d-0-code.js", flatName(ec.SourceID), ec.NestingLevel, ec.OccurrenceIndex),
		func() ([]byte, error) { return []byte(source), nil })
}

// Tokens writes the token stream of one level as indented JSON.
func (s *FileSink) Tokens(ec extract.Context, tokens []token.Token) {
	s.write(fmt.Sprintf("%s-%d-%d.1.tokens.json", flatName(ec.SourceID), ec.NestingLevel, ec.OccurrenceIndex),
		func() ([]byte, error) {
			if tokens == nil {
				tokens = []token.Token{}
			}
			return json.MarshalIndent(tokens, "", "    ")
		})
}

// Strings writes the literals collected at one level, excluding those
// from nested levels.
func (s *FileSink) Strings(ec extract.Context, literals []string) {
	s.write(fmt.Sprintf("%s-%d-%d.2.strings.json", flatName(ec.SourceID), ec.NestingLevel, ec.OccurrenceIndex),
		func() ([]byte, error) {
			if literals == nil {
				literals = []string{}
			}
			return json.Marshal(literals)
		})
}

// =============================================================================
// Asset and Run Dumps
// =============================================================================

// DistinctWords writes the distinct words split from an asset's literals.
func (s *FileSink) DistinctWords(asset string, words []string) {
	s.write(filepath.Join("strings", flatName(asset)+".1.distinct-tokens-from-strings"),
		lines(words, false))
}

// ValidClassNames writes an asset's shape-valid candidates, sorted.
func (s *FileSink) ValidClassNames(asset string, names []string) {
	s.write(filepath.Join("strings", flatName(asset)+".2.valid-class-names-from-strings"),
		lines(names, true))
}

// RunCandidates writes the union of candidates across all assets, sorted.
func (s *FileSink) RunCandidates(names []string) {
	s.write(filepath.Join("strings", "-valid-class-names"), lines(names, true))
}

// RunFiltered writes the candidates that survived filtering, sorted.
func (s *FileSink) RunFiltered(names []string) {
	s.write(filepath.Join("strings", "-filtered-class-names"), lines(names, true))
}

// =============================================================================
// Internal
// =============================================================================

func (s *FileSink) write(name string, content func() ([]byte, error)) {
	if !s.Enabled() {
		return
	}

	data, err := content()
	if err != nil {
		s.logger.Warn("debug dump skipped",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
		return
	}

	path := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Warn("debug dump failed",
			slog.String("file", path),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("debug dump failed",
			slog.String("file", path),
			slog.String("error", err.Error()),
		)
		return
	}

	s.written.Add(1)
	s.logger.Debug("debug dump written",
		slog.String("file", path),
		slog.Int("bytes", len(data)),
	)
}

func lines(values []string, sorted bool) func() ([]byte, error) {
	return func() ([]byte, error) {
		if sorted {
			values = candidates.Sorted(values)
		}
		return []byte(strings.Join(values, "\n")), nil
	}
}

// flatName turns an asset path into a single file name component.
func flatName(name string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(name)
}

var _ extract.Snapshotter = (*FileSink)(nil)
