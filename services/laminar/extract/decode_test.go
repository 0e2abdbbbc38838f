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
	"errors"
	"strings"
	"testing"
)

func TestDecodeStringLiteral(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"double quoted", `"abc"`, "abc"},
		{"single quoted", `'abc'`, "abc"},
		{"empty", `""`, ""},
		{"other quote unescaped", `'say "hi"'`, `say "hi"`},
		{"escaped single quote", `'a\'b'`, "a'b"},
		{"escaped double quote", `"a\"b"`, `a"b`},
		{"backslash", `"a\\b"`, `a\b`},
		{"control escapes", `"\n\t\r\b\f\v"`, "\n\t\r\b\f\v"},
		{"hex escape", `"\x41\x62"`, "Ab"},
		{"unicode escape", `"\u0041"`, "A"},
		{"unicode code point escape", `"\u{1F600}"`, "\U0001F600"},
		{"surrogate pair", `"\uD83D\uDE00"`, "\U0001F600"},
		{"lone surrogate", `"\uD800x"`, "\uFFFDx"},
		{"nul", `"\0"`, "\x00"},
		{"legacy octal", `"\101\7"`, "A\a"},
		{"legacy octal two digit max", `"\477"`, "'7"},
		{"identity eight", `"\8"`, "8"},
		{"identity letter", `"\q"`, "q"},
		{"line continuation", "\"line\\\ncont\"", "linecont"},
		{"crlf continuation", "\"line\\\r\ncont\"", "linecont"},
		{"non ascii", `"héllo wörld"`, "héllo wörld"},
		{"escaped non ascii", `"\é"`, "é"},
		{"class list", `"btn btn-primary"`, "btn btn-primary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStringLiteral(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeStringLiteral(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeStringLiteral_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"too short", `"`},
		{"no quotes", `abc`},
		{"template", "`abc`"},
		{"unterminated", `"abc`},
		{"mismatched quotes", `"abc'`},
		{"dangling backslash", `"\"`},
		{"short hex", `"\x4"`},
		{"bad hex", `"\xZZ"`},
		{"short unicode", `"\u12"`},
		{"empty braces", `"\u{}"`},
		{"unterminated braces", `"\u{41"`},
		{"out of range", `"\u{110000}"`},
		{"inner quote", `"a"b"`},
		{"raw newline", "\"a\nb\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStringLiteral(tt.raw)
			if err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Errorf("expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestDecodeError_TruncatesLiteral(t *testing.T) {
	raw := `"` + strings.Repeat("a", 200) + `\x"`
	_, err := DecodeStringLiteral(raw)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if len(derr.Literal) > maxLiteralDisplay*5 {
		t.Errorf("literal not truncated: %d bytes", len(derr.Literal))
	}
}
