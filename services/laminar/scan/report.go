// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scan

import (
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/laminar/services/laminar/extract"
)

// Status is the outcome of one asset.
type Status string

const (
	// StatusOK means candidates were extracted.
	StatusOK Status = "ok"

	// StatusCached means candidates came from the cache.
	StatusCached Status = "cached"

	// StatusFailed means extraction aborted and the asset contributed nothing.
	StatusFailed Status = "failed"
)

// AssetError is a fatal failure for one asset.
type AssetError struct {
	// Asset is the asset name.
	Asset string

	// Context locates the failing level. Zero when the failure happened
	// before extraction, e.g. while reading.
	Context extract.Context

	// Position is the byte offset of the offending token within the
	// level's source, or -1.
	Position int

	Err error
}

func (e *AssetError) Error() string {
	if e.Context.NestingLevel == 0 {
		return fmt.Sprintf("asset %s: %v", e.Asset, e.Err)
	}
	return fmt.Sprintf("asset %s at level %d occurrence %d offset %d: %v",
		e.Asset, e.Context.NestingLevel, e.Context.OccurrenceIndex, e.Position, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// newAssetError converts an extraction error into an AssetError, keeping
// the nesting coordinates when they are known.
func newAssetError(asset string, err error) *AssetError {
	var xerr *extract.ExtractError
	if errors.As(err, &xerr) {
		return &AssetError{Asset: asset, Context: xerr.Context, Position: xerr.Position, Err: xerr.Err}
	}
	return &AssetError{Asset: asset, Position: -1, Err: err}
}

// AssetReport describes one processed asset.
type AssetReport struct {
	Name          string        `json:"name"`
	Size          int64         `json:"size"`
	Status        Status        `json:"status"`
	Literals      int           `json:"literals"`
	Candidates    []string      `json:"candidates"`
	ParseFailures int           `json:"parse_failures"`
	DepthExceeded int           `json:"depth_exceeded"`
	Duration      time.Duration `json:"duration_ns"`
	Err           *AssetError   `json:"-"`
	Error         string        `json:"error,omitempty"`
}

// Report is the result of one scan.
type Report struct {
	// RunID identifies the scan in logs and traces.
	RunID string `json:"run_id"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	// Assets are in input order.
	Assets []AssetReport `json:"assets"`

	// Candidates is the distinct union of all asset candidates.
	Candidates []string `json:"candidates"`

	// Filtered is Candidates after the filter rules.
	Filtered []string `json:"filtered"`

	// Failed is the number of assets with StatusFailed.
	Failed int `json:"failed"`
}

// Err joins the errors of all failed assets. Nil when none failed.
func (r *Report) Err() error {
	var errs []error
	for _, a := range r.Assets {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errors.Join(errs...)
}

// ParseFailures returns the total number of recoverable parse failures.
func (r *Report) ParseFailures() int {
	n := 0
	for _, a := range r.Assets {
		n += a.ParseFailures
	}
	return n
}
