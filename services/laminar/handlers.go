// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package laminar

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/laminar/services/laminar/candidates"
	"github.com/AleutianAI/laminar/services/laminar/scan"
)

// requestIDHeader carries the caller's request id, generated when absent.
const requestIDHeader = "X-Request-ID"

// DefaultMaxSourceBytes bounds the request body of the extract endpoint.
const DefaultMaxSourceBytes = 10 * 1024 * 1024

// HandlersConfig configures Handlers.
type HandlersConfig struct {
	// RatePerSecond and Burst configure the shared token bucket.
	// A non-positive RatePerSecond disables limiting.
	RatePerSecond float64
	Burst         int

	// MaxSourceBytes bounds request bodies.
	// Default: DefaultMaxSourceBytes
	MaxSourceBytes int64
}

// Handlers serves the laminar HTTP API.
//
// Thread Safety: Safe for concurrent use.
type Handlers struct {
	scanner        *scan.Scanner
	limiter        *rate.Limiter
	maxSourceBytes int64
}

// NewHandlers creates handlers backed by scanner. Panics if scanner is nil.
func NewHandlers(scanner *scan.Scanner, cfg HandlersConfig) *Handlers {
	if scanner == nil {
		panic("NewHandlers: scanner must not be nil")
	}
	h := &Handlers{scanner: scanner, maxSourceBytes: cfg.MaxSourceBytes}
	if h.maxSourceBytes <= 0 {
		h.maxSourceBytes = DefaultMaxSourceBytes
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return h
}

// RateLimit returns middleware rejecting requests above the configured rate
// with 429.
func (h *Handlers) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter != nil && !h.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Code:  CodeRateLimited,
			})
			return
		}
		c.Next()
	}
}

// HandleExtract handles POST /v1/laminar/extract.
//
// Description:
//
//	Runs the scanner over one in-memory artifact and returns its
//	candidates before and after filtering. Parse failures are reported in
//	the response counts; a decode failure rejects the request.
//
// Response:
//
//	200 OK: ExtractResponse
//	400 Bad Request: Malformed body or missing name
//	413 Request Entity Too Large: Body above MaxSourceBytes
//	422 Unprocessable Entity: A string literal could not be decoded
//	429 Too Many Requests: Rate limited
func (h *Handlers) HandleExtract(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleExtract")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSourceBytes)

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "source too large", Code: CodeTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest})
		return
	}

	report, err := h.scanner.ScanSource(c.Request.Context(), req.Name, req.Source)
	if err != nil {
		logger.Warn("extract aborted", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeInternal})
		return
	}

	asset := report.Assets[0]
	if asset.Err != nil {
		logger.Info("extract rejected",
			slog.String("asset", req.Name),
			slog.String("error", asset.Error),
		)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: asset.Error, Code: CodeDecodeFailure})
		return
	}

	c.JSON(http.StatusOK, ExtractResponse{
		RunID:         report.RunID,
		Name:          req.Name,
		Literals:      asset.Literals,
		ParseFailures: asset.ParseFailures,
		DepthExceeded: asset.DepthExceeded,
		Cached:        asset.Status == scan.StatusCached,
		Candidates:    nonNil(report.Candidates),
		Filtered:      nonNil(report.Filtered),
	})
}

// HandleFilter handles POST /v1/laminar/filter.
//
// Description:
//
//	Applies the configured filter rules to caller-supplied candidates.
//
// Response:
//
//	200 OK: FilterResponse
//	400 Bad Request: Malformed body
func (h *Handlers) HandleFilter(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSourceBytes)

	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest})
		return
	}

	c.JSON(http.StatusOK, FilterResponse{
		Filtered: nonNil(candidates.ApplyFilters(req.Candidates, h.scanner.Rules())),
	})
}

// HandleHealth handles GET /v1/laminar/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

func getOrCreateRequestID(c *gin.Context) string {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	return id
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
