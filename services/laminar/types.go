// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package laminar exposes class-name candidate extraction over HTTP.
package laminar

// ExtractRequest is the body of POST /v1/laminar/extract.
type ExtractRequest struct {
	// Name identifies the artifact in logs and errors.
	Name string `json:"name" binding:"required"`

	// Source is the script text.
	Source string `json:"source"`
}

// ExtractResponse is returned by POST /v1/laminar/extract.
type ExtractResponse struct {
	RunID         string   `json:"run_id"`
	Name          string   `json:"name"`
	Literals      int      `json:"literals"`
	ParseFailures int      `json:"parse_failures"`
	DepthExceeded int      `json:"depth_exceeded"`
	Cached        bool     `json:"cached"`
	Candidates    []string `json:"candidates"`
	Filtered      []string `json:"filtered"`
}

// FilterRequest is the body of POST /v1/laminar/filter.
type FilterRequest struct {
	Candidates []string `json:"candidates" binding:"required"`
}

// FilterResponse is returned by POST /v1/laminar/filter.
type FilterResponse struct {
	Filtered []string `json:"filtered"`
}

// HealthResponse is returned by GET /v1/laminar/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeTooLarge       = "SOURCE_TOO_LARGE"
	CodeDecodeFailure  = "DECODE_FAILURE"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
)
