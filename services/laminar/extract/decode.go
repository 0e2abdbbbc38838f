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
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrDecode is the sentinel wrapped by every string-literal decode failure.
var ErrDecode = errors.New("malformed string literal")

// DecodeError describes why a string literal could not be decoded.
type DecodeError struct {
	// Literal is the raw literal text, truncated for display.
	Literal string

	// Offset is the byte offset within the literal where decoding failed.
	Offset int

	// Reason is a short description of the problem.
	Reason string
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed string literal %s at offset %d: %s", e.Literal, e.Offset, e.Reason)
}

// Unwrap returns ErrDecode.
func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// maxLiteralDisplay bounds the literal text kept on a DecodeError.
const maxLiteralDisplay = 64

func newDecodeError(raw string, offset int, reason string) *DecodeError {
	display := raw
	if len(display) > maxLiteralDisplay {
		display = display[:maxLiteralDisplay] + "..."
	}
	return &DecodeError{Literal: fmt.Sprintf("%q", display), Offset: offset, Reason: reason}
}

// DecodeStringLiteral returns the character content a JavaScript string
// literal represents.
//
// Description:
//
//	raw is the literal as written in source, including its single or double
//	quote delimiters. Escape sequences are resolved the way a sloppy-mode
//	script engine resolves them: single-character escapes, \xHH, \uHHHH,
//	\u{H...}, legacy octal, line continuations and identity escapes. Content
//	is assembled as UTF-16 code units so surrogate pairs written as two \u
//	escapes combine; unpaired surrogates become U+FFFD.
//
// Outputs:
//
//	string - The decoded value.
//	error  - *DecodeError for anything that is not a well-formed literal.
//
// Thread Safety: Stateless. Safe for concurrent use.
func DecodeStringLiteral(raw string) (string, error) {
	if len(raw) < 2 {
		return "", newDecodeError(raw, 0, "missing quotes")
	}
	quote := raw[0]
	if quote != '"' && quote != '\'' {
		return "", newDecodeError(raw, 0, "literal must start with a quote")
	}
	if raw[len(raw)-1] != quote {
		return "", newDecodeError(raw, len(raw)-1, "unterminated literal")
	}

	body := raw[1 : len(raw)-1]
	// Fast path: nothing to resolve.
	if !strings.ContainsAny(body, "\\\n\r"+string(quote)) {
		return body, nil
	}

	units := make([]uint16, 0, len(body))
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == quote:
			return "", newDecodeError(raw, i+1, "unescaped quote inside literal")
		case c == '\n' || c == '\r':
			return "", newDecodeError(raw, i+1, "unescaped line terminator")
		case c != '\\':
			r, size := utf8.DecodeRuneInString(body[i:])
			units = appendRune(units, r)
			i += size
			continue
		}

		// Escape sequence.
		if i+1 >= len(body) {
			return "", newDecodeError(raw, i+1, "dangling backslash")
		}
		next, size := utf8.DecodeRuneInString(body[i+1:])
		escStart := i
		i += 1 + size

		switch next {
		case 'n':
			units = append(units, '\n')
		case 'r':
			units = append(units, '\r')
		case 't':
			units = append(units, '\t')
		case 'b':
			units = append(units, '\b')
		case 'f':
			units = append(units, '\f')
		case 'v':
			units = append(units, '\v')
		case '\n', '\u2028', '\u2029':
			// Line continuation.
		case '\r':
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case 'x':
			v, ok := parseHex(body, i, 2)
			if !ok {
				return "", newDecodeError(raw, escStart+1, "invalid \\x escape")
			}
			units = append(units, uint16(v))
			i += 2
		case 'u':
			v, n, err := parseUnicodeEscape(body, i)
			if err != "" {
				return "", newDecodeError(raw, escStart+1, err)
			}
			if v > 0xFFFF {
				units = appendRune(units, rune(v))
			} else {
				units = append(units, uint16(v))
			}
			i += n
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v, n := parseLegacyOctal(body, escStart+1)
			units = append(units, uint16(v))
			i = escStart + 1 + n
		default:
			// Identity escape, including \' \" \\ \8 \9.
			units = appendRune(units, next)
		}
	}

	return string(utf16.Decode(units)), nil
}

// appendRune appends r as UTF-16 code units.
func appendRune(units []uint16, r rune) []uint16 {
	if r >= 0x10000 {
		hi, lo := utf16.EncodeRune(r)
		return append(units, uint16(hi), uint16(lo))
	}
	return append(units, uint16(r))
}

// parseHex reads exactly n hex digits from s at i.
func parseHex(s string, i, n int) (uint32, bool) {
	if i+n > len(s) {
		return 0, false
	}
	var v uint32
	for j := i; j < i+n; j++ {
		d, ok := hexDigit(s[j])
		if !ok {
			return 0, false
		}
		v = v<<4 | d
	}
	return v, true
}

// parseUnicodeEscape reads the part of a \u escape after the "u".
// It returns the code point, the number of bytes consumed and a reason on
// failure.
func parseUnicodeEscape(s string, i int) (uint32, int, string) {
	if i < len(s) && s[i] == '{' {
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			return 0, 0, "unterminated \\u{ escape"
		}
		digits := s[i+1 : i+end]
		if digits == "" {
			return 0, 0, "empty \\u{} escape"
		}
		var v uint32
		for j := 0; j < len(digits); j++ {
			d, ok := hexDigit(digits[j])
			if !ok {
				return 0, 0, "invalid \\u{ escape"
			}
			v = v<<4 | d
			if v > utf8.MaxRune {
				return 0, 0, "\\u{ escape out of range"
			}
		}
		return v, end + 1, ""
	}
	v, ok := parseHex(s, i, 4)
	if !ok {
		return 0, 0, "invalid \\u escape"
	}
	return v, 4, ""
}

// parseLegacyOctal reads a legacy octal escape starting at the first digit.
// A leading 0-3 allows up to three digits, 4-7 up to two.
func parseLegacyOctal(s string, i int) (uint32, int) {
	maxDigits := 2
	if s[i] <= '3' {
		maxDigits = 3
	}
	var v uint32
	n := 0
	for n < maxDigits && i+n < len(s) && s[i+n] >= '0' && s[i+n] <= '7' {
		v = v<<3 | uint32(s[i+n]-'0')
		n++
	}
	return v, n
}

func hexDigit(c byte) (uint32, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint32(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint32(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint32(c-'A') + 10, true
	}
	return 0, false
}
