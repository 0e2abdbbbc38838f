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

// tokenExpectation is one slot of a window pattern, relative to an anchor
// token.
type tokenExpectation struct {
	offset int
	kind   token.Kind
	value  string
}

// evalCallWindow matches `eval ( <anchor> )` with the string literal as the
// anchor.
var evalCallWindow = []tokenExpectation{
	{offset: -2, kind: token.KindIdentifier, value: "eval"},
	{offset: -1, kind: token.KindPunctuator, value: "("},
	{offset: +1, kind: token.KindPunctuator, value: ")"},
}

// MatchEvalCall reports whether the token at index i is the sole argument
// of an eval call.
//
// Description:
//
//	The window is purely positional: tokens[i-2] must be the identifier
//	eval, tokens[i-1] an opening parenthesis and tokens[i+1] a closing
//	parenthesis. Out-of-range slots never match, so i must leave room for
//	two tokens before and one after. The anchor's own kind is not checked;
//	callers only ask about string tokens.
//
// Thread Safety: Stateless. Safe for concurrent use.
func MatchEvalCall(tokens []token.Token, i int) bool {
	return matchWindow(tokens, i, evalCallWindow)
}

// matchWindow checks every expectation of pattern around the anchor.
func matchWindow(tokens []token.Token, anchor int, pattern []tokenExpectation) bool {
	if anchor < 0 || anchor >= len(tokens) {
		return false
	}
	for _, want := range pattern {
		j := anchor + want.offset
		if j < 0 || j >= len(tokens) {
			return false
		}
		if !tokens[j].Is(want.kind, want.value) {
			return false
		}
	}
	return true
}
