// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast adapts tree-sitter syntax trees to the token model used by the
// literal extractor.
package ast

import (
	"errors"

	"go.opentelemetry.io/otel"
)

// tracer is the package tracer for tokenizer spans.
var tracer = otel.Tracer("laminar.ast")

var (
	// ErrFileTooLarge is returned when source exceeds the configured size.
	ErrFileTooLarge = errors.New("source exceeds maximum size")

	// ErrInvalidContent is returned when source is not valid UTF-8.
	ErrInvalidContent = errors.New("source is not valid UTF-8")
)
