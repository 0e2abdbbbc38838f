// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// JavaScript Tree-sitter Node Types
//
// Node types the tokenizer treats specially. Everything else is flattened
// to its leaves.
//
// Reference: https://github.com/tree-sitter/tree-sitter-javascript

const (
	// Literals emitted as a single token.
	jsNodeString         = "string"
	jsNodeRegex          = "regex"
	jsNodeTemplateString = "template_string"

	// Template parts that are walked.
	jsNodeTemplateSubstitution = "template_substitution"

	// Identifier-like leaves.
	jsNodeIdentifier                       = "identifier"
	jsNodePropertyIdentifier               = "property_identifier"
	jsNodePrivatePropertyIdentifier        = "private_property_identifier"
	jsNodeShorthandPropertyIdentifier      = "shorthand_property_identifier"
	jsNodeShorthandPropertyIdentifierPattn = "shorthand_property_identifier_pattern"
	jsNodeStatementIdentifier              = "statement_identifier"
	jsNodeUndefined                        = "undefined"

	// Dropped.
	jsNodeComment     = "comment"
	jsNodeHTMLComment = "html_comment"

	// Error recovery.
	jsNodeError = "ERROR"
)

// jsIdentifierNodes maps leaf node types lexed as identifiers.
var jsIdentifierNodes = map[string]bool{
	jsNodeIdentifier:                       true,
	jsNodePropertyIdentifier:               true,
	jsNodePrivatePropertyIdentifier:        true,
	jsNodeShorthandPropertyIdentifier:      true,
	jsNodeShorthandPropertyIdentifierPattn: true,
	jsNodeStatementIdentifier:              true,
	jsNodeUndefined:                        true,
}
