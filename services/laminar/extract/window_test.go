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
	"testing"

	"github.com/AleutianAI/laminar/services/laminar/token"
)

func ident(v string) token.Token { return token.Token{Kind: token.KindIdentifier, Value: v} }
func punct(v string) token.Token { return token.Token{Kind: token.KindPunctuator, Value: v} }
func str(v string) token.Token   { return token.Token{Kind: token.KindString, Value: v} }

func TestMatchEvalCall(t *testing.T) {
	tests := []struct {
		name   string
		tokens []token.Token
		index  int
		want   bool
	}{
		{
			name:   "eval call at start",
			tokens: []token.Token{ident("eval"), punct("("), str(`"x"`), punct(")")},
			index:  2,
			want:   true,
		},
		{
			name:   "eval call after other tokens",
			tokens: []token.Token{ident("a"), punct(";"), ident("eval"), punct("("), str(`"x"`), punct(")")},
			index:  4,
			want:   true,
		},
		{
			name:   "second argument follows",
			tokens: []token.Token{ident("eval"), punct("("), str(`"a"`), punct(","), str(`"b"`), punct(")")},
			index:  2,
			want:   false,
		},
		{
			name:   "last of two arguments",
			tokens: []token.Token{ident("eval"), punct("("), str(`"a"`), punct(","), str(`"b"`), punct(")")},
			index:  4,
			want:   false,
		},
		{
			name:   "other function",
			tokens: []token.Token{ident("evaluate"), punct("("), str(`"x"`), punct(")")},
			index:  2,
			want:   false,
		},
		{
			name:   "eval as string not identifier",
			tokens: []token.Token{str(`"eval"`), punct("("), str(`"x"`), punct(")")},
			index:  2,
			want:   false,
		},
		{
			name:   "no closing paren",
			tokens: []token.Token{ident("eval"), punct("("), str(`"x"`)},
			index:  2,
			want:   false,
		},
		{
			name:   "too close to start",
			tokens: []token.Token{punct("("), str(`"x"`), punct(")")},
			index:  1,
			want:   false,
		},
		{
			name:   "out of range",
			tokens: []token.Token{ident("eval"), punct("("), str(`"x"`), punct(")")},
			index:  9,
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchEvalCall(tt.tokens, tt.index); got != tt.want {
				t.Errorf("MatchEvalCall() = %v, want %v", got, tt.want)
			}
		})
	}
}
