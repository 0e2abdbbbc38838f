// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package candidates

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// =============================================================================
// Matchers
// =============================================================================

// Matcher decides whether a candidate matches a rule.
type Matcher interface {
	Match(candidate string) bool
}

// MatchFunc adapts a plain function to Matcher.
type MatchFunc func(candidate string) bool

// Match implements Matcher.
func (f MatchFunc) Match(candidate string) bool { return f(candidate) }

type patternMatcher struct {
	re *regexp.Regexp
}

func (p patternMatcher) Match(candidate string) bool { return p.re.MatchString(candidate) }

func (p patternMatcher) String() string { return p.re.String() }

// Pattern adapts a compiled regular expression to Matcher. The expression
// is unanchored unless it anchors itself.
func Pattern(re *regexp.Regexp) Matcher {
	return patternMatcher{re: re}
}

// MustPattern compiles expr and panics if it is invalid.
func MustPattern(expr string) Matcher {
	return Pattern(regexp.MustCompile(expr))
}

// =============================================================================
// Filter Rules
// =============================================================================

// FilterRules configures the candidate filter pipeline.
//
// Description:
//
//	A candidate is excluded when any Exclude matcher matches, when
//	SkipAllUpperCase is set and the candidate is all upper case, when
//	OnlyAllLowerCase is set and the candidate is not all lower case, or
//	when it is shorter than MinLength or longer than MaxLength. It is
//	included when Include is empty or any Include matcher matches.
//
//	Lengths count UTF-16 code units. For ASCII candidates this equals the
//	byte length.
//
// Thread Safety: Read-only after construction; safe for concurrent use if
// the matchers are.
type FilterRules struct {
	// Include limits the result to candidates matching at least one matcher.
	// Empty means every candidate is included.
	Include []Matcher

	// Exclude drops candidates matching any matcher.
	Exclude []Matcher

	// SkipAllUpperCase drops candidates equal to their upper-case form.
	SkipAllUpperCase bool

	// OnlyAllLowerCase keeps only candidates equal to their lower-case form.
	OnlyAllLowerCase bool

	// MinLength drops candidates shorter than *MinLength. Nil disables it.
	MinLength *int

	// MaxLength drops candidates longer than *MaxLength. Nil disables it.
	MaxLength *int
}

// Length returns a pointer to n, for use in FilterRules literals.
func Length(n int) *int {
	return &n
}

// Excluded reports whether any exclusion rule matches candidate.
func (r FilterRules) Excluded(candidate string) bool {
	for _, m := range r.Exclude {
		if m.Match(candidate) {
			return true
		}
	}
	if r.SkipAllUpperCase && strings.ToUpper(candidate) == candidate {
		return true
	}
	if r.OnlyAllLowerCase && strings.ToLower(candidate) != candidate {
		return true
	}
	if r.MinLength != nil || r.MaxLength != nil {
		n := codeUnits(candidate)
		if r.MinLength != nil && n < *r.MinLength {
			return true
		}
		if r.MaxLength != nil && n > *r.MaxLength {
			return true
		}
	}
	return false
}

// Included reports whether candidate passes the include rules.
func (r FilterRules) Included(candidate string) bool {
	if len(r.Include) == 0 {
		return true
	}
	for _, m := range r.Include {
		if m.Match(candidate) {
			return true
		}
	}
	return false
}

// Keep reports whether candidate survives the pipeline.
func (r FilterRules) Keep(candidate string) bool {
	return r.Included(candidate) && !r.Excluded(candidate)
}

// IsZero reports whether the rules keep every candidate.
func (r FilterRules) IsZero() bool {
	return len(r.Include) == 0 && len(r.Exclude) == 0 &&
		!r.SkipAllUpperCase && !r.OnlyAllLowerCase &&
		r.MinLength == nil && r.MaxLength == nil
}

// ApplyFilters returns the candidates that rules keep, in input order.
//
// Description:
//
//	Applying the same rules to the result again returns it unchanged.
//	A panicking matcher is not recovered; the panic reaches the caller.
//
// Inputs:
//
//	candidates - Distinct candidate class names.
//	rules - The filter configuration. The zero value keeps everything.
//
// Outputs:
//
//	[]string - The kept candidates. Nil when none survive.
func ApplyFilters(candidates []string, rules FilterRules) []string {
	var out []string
	for _, c := range candidates {
		if rules.Keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
