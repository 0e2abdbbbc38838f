// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package candidates turns decoded string literals into class-name
// candidates and filters them with user-supplied rules.
//
// Description:
//
//	ToCandidates splits literals into whitespace-delimited words, removes
//	duplicates and keeps only words shaped like a stylesheet class name.
//	ApplyFilters then keeps a candidate iff it is included and not
//	excluded by a FilterRules value.
//
// Thread Safety:
//
//	All functions are pure. FilterRules is safe for concurrent use as long
//	as its matchers are.
package candidates

import (
	"regexp"
	"strings"
	"unicode"
)

// ClassNamePattern is the shape a word must have to be a candidate: an
// optional leading hyphen, one or more letters or underscores, then
// letters, digits, hyphens, underscores or colons.
var ClassNamePattern = regexp.MustCompile(`^-?[_a-zA-Z]+[-_a-zA-Z0-9:]*$`)

// IsClassName reports whether word has the class-name shape.
func IsClassName(word string) bool {
	return ClassNamePattern.MatchString(word)
}

// isSpace matches the JavaScript \s class, which adds U+FEFF to the
// Unicode white space set.
func isSpace(r rune) bool {
	return r == '\uFEFF' || unicode.IsSpace(r)
}

// Words splits every literal on runs of whitespace and returns the distinct
// words in first-occurrence order.
func Words(literals []string) []string {
	seen := make(map[string]struct{})
	var words []string
	for _, lit := range literals {
		for _, w := range strings.FieldsFunc(lit, isSpace) {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}
	return words
}

// ValidClassNames returns the words that have the class-name shape,
// preserving order.
func ValidClassNames(words []string) []string {
	var out []string
	for _, w := range words {
		if IsClassName(w) {
			out = append(out, w)
		}
	}
	return out
}

// ToCandidates returns the distinct, shape-valid words found in literals.
//
// Description:
//
//	Each distinct value appears exactly once, in the order it was first
//	seen. Words that do not look like a class name are dropped silently.
//
// Inputs:
//
//	literals - Decoded string literal values.
//
// Outputs:
//
//	[]string - Candidate class names. Nil when there are none.
func ToCandidates(literals []string) []string {
	return ValidClassNames(Words(literals))
}
