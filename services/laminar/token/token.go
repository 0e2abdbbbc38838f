// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package token defines the lexical token model consumed by the literal
// extractor.
//
// Tokenizers are adapters: anything that can turn script source into an
// ordered []Token can drive extraction. The extractor relies only on Kind and
// Value; Position is carried for diagnostics.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a token.
type Kind int

const (
	// KindOther covers keywords, numbers, templates, regex literals and
	// anything else the extractor does not inspect.
	KindOther Kind = iota

	// KindString is a quoted string literal. Value holds the raw source
	// text including the surrounding quotes.
	KindString

	// KindIdentifier is a name such as a variable or property.
	KindIdentifier

	// KindPunctuator is an operator or delimiter such as "(" or ")".
	KindPunctuator
)

var kindNames = map[Kind]string{
	KindOther:      "Other",
	KindString:     "String",
	KindIdentifier: "Identifier",
	KindPunctuator: "Punctuator",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalJSON encodes the kind as its name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("token kind: %w", err)
	}
	for kind, n := range kindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("token kind: unknown name %q", name)
}

// Token is one lexical unit of source text.
//
// Tokens are values and are never modified after a tokenizer produces them.
type Token struct {
	// Kind is the lexical class.
	Kind Kind `json:"type"`

	// Value is the token text exactly as it appears in the source.
	Value string `json:"value"`

	// Position is the byte offset of the token start.
	Position int `json:"position"`
}

// Is reports whether the token has the given kind and value.
func (t Token) Is(kind Kind, value string) bool {
	return t.Kind == kind && t.Value == value
}

// Tokenizer turns source text into an ordered token sequence.
//
// Description:
//
//	A non-nil error means the source could not be lexed. Callers treat that
//	as "no tokens here", never as fatal. Implementations should return an
//	error wrapping ErrParse.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Tokenizer interface {
	Tokenize(ctx context.Context, source string) ([]Token, error)
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(ctx context.Context, source string) ([]Token, error)

// Tokenize calls f.
func (f TokenizerFunc) Tokenize(ctx context.Context, source string) ([]Token, error) {
	return f(ctx, source)
}

// Fingerprinter is implemented by tokenizers whose settings change the
// tokens they produce. Callers that cache results fold the fingerprint into
// their keys.
type Fingerprinter interface {
	Fingerprint() string
}

// ErrParse is the sentinel wrapped by every tokenization failure.
var ErrParse = errors.New("parse failure")

// ParseError describes where tokenization failed.
type ParseError struct {
	// Offset is the byte offset of the first offending input, or -1.
	Offset int

	// Reason is a short human readable description.
	Reason string

	// Err is an optional underlying cause.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	msg := "parse failure"
	if e.Offset >= 0 {
		msg = fmt.Sprintf("parse failure at offset %d", e.Offset)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is match both ErrParse and the cause.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}
