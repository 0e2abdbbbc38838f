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
	"github.com/AleutianAI/laminar/services/laminar/token"
)

// Snapshotter receives per-level diagnostic snapshots.
//
// Description:
//
//	For every extraction level the Extractor hands over the source it is
//	about to tokenize, the token stream (only when tokenization worked) and
//	the literals decoded at that level, excluding those of nested levels.
//	Snapshots carry no logic; a snapshotter must not retain or modify the
//	slices it is given beyond the call.
type Snapshotter interface {
	Code(ec Context, source string)
	Tokens(ec Context, tokens []token.Token)
	Strings(ec Context, literals []string)
}

// NopSnapshotter discards all snapshots.
type NopSnapshotter struct{}

// Code implements Snapshotter.
func (NopSnapshotter) Code(Context, string) {}

// Tokens implements Snapshotter.
func (NopSnapshotter) Tokens(Context, []token.Token) {}

// Strings implements Snapshotter.
func (NopSnapshotter) Strings(Context, []string) {}
