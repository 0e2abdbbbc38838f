// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scan discovers script assets and turns them into one filtered set
// of class-name candidates.
//
// Description:
//
//	Assets are processed concurrently. Each asset runs through the literal
//	extractor and candidate splitter independently; results are merged in
//	input order and filtered once. Parse failures are recoverable and only
//	reduce what an asset contributes. A decode failure aborts its own asset,
//	which is reported as failed while every other asset continues.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/laminar/services/laminar/cache"
	"github.com/AleutianAI/laminar/services/laminar/candidates"
	"github.com/AleutianAI/laminar/services/laminar/diagnostics"
	"github.com/AleutianAI/laminar/services/laminar/extract"
	"github.com/AleutianAI/laminar/services/laminar/token"
)

var tracer = otel.Tracer("laminar.scan")

// ScannerOptions configures a Scanner.
type ScannerOptions struct {
	// MaxDepth is passed to the extractor.
	// Default: extract.DefaultMaxDepth
	MaxDepth int

	// Workers bounds concurrent assets.
	// Default: GOMAXPROCS
	Workers int

	// Rules filter the merged candidates.
	// Default: keep everything
	Rules candidates.FilterRules

	// Cache stores per-asset candidates. Nil disables caching.
	Cache cache.Store

	// Sink receives debug dumps. Nil disables them.
	Sink *diagnostics.FileSink

	// Reporter receives recoverable extraction events in addition to the
	// scanner's own accounting.
	// Default: extract.SlogReporter on Logger
	Reporter extract.Reporter

	// Logger is used for progress and cache warnings.
	// Default: slog.Default()
	Logger *slog.Logger
}

// ScannerOption is a functional option for configuring Scanner.
type ScannerOption func(*ScannerOptions)

// WithScanMaxDepth sets the eval nesting limit.
func WithScanMaxDepth(depth int) ScannerOption {
	return func(o *ScannerOptions) { o.MaxDepth = depth }
}

// WithWorkers sets the number of concurrent assets.
func WithWorkers(n int) ScannerOption {
	return func(o *ScannerOptions) { o.Workers = n }
}

// WithRules sets the candidate filter rules.
func WithRules(rules candidates.FilterRules) ScannerOption {
	return func(o *ScannerOptions) { o.Rules = rules }
}

// WithCache sets the candidate cache.
func WithCache(store cache.Store) ScannerOption {
	return func(o *ScannerOptions) { o.Cache = store }
}

// WithSink sets the debug sink.
func WithSink(sink *diagnostics.FileSink) ScannerOption {
	return func(o *ScannerOptions) { o.Sink = sink }
}

// WithScanReporter sets an additional extraction event reporter.
func WithScanReporter(r extract.Reporter) ScannerOption {
	return func(o *ScannerOptions) { o.Reporter = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ScannerOption {
	return func(o *ScannerOptions) { o.Logger = logger }
}

// Scanner runs extraction over a set of assets.
//
// Thread Safety: Safe for concurrent use. Scans share only the cache.
type Scanner struct {
	tokenizer token.Tokenizer
	options   ScannerOptions
}

// NewScanner creates a Scanner using tokenizer for every level of every
// asset.
//
// Inputs:
//
//	tokenizer - The tokenizer. Must not be nil.
//	opts      - Functional options.
//
// Outputs:
//
//	*Scanner - Never nil. Panics if tokenizer is nil.
func NewScanner(tokenizer token.Tokenizer, opts ...ScannerOption) *Scanner {
	if tokenizer == nil {
		panic("NewScanner: tokenizer must not be nil")
	}
	var options ScannerOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = extract.DefaultMaxDepth
	}
	if options.Workers <= 0 {
		options.Workers = runtime.GOMAXPROCS(0)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Reporter == nil {
		options.Reporter = extract.NewSlogReporter(options.Logger)
	}
	if options.Sink == nil {
		options.Sink = diagnostics.NewFileSink("", false, options.Logger)
	}
	return &Scanner{tokenizer: tokenizer, options: options}
}

// Rules returns the filter rules.
func (s *Scanner) Rules() candidates.FilterRules { return s.options.Rules }

// fingerprint captures the settings that change an asset's candidates,
// including the tokenizer's own when it reports them.
func (s *Scanner) fingerprint() string {
	fp := fmt.Sprintf("max_depth=%d", s.options.MaxDepth)
	if f, ok := s.tokenizer.(token.Fingerprinter); ok {
		fp += ";tokenizer=" + f.Fingerprint()
	}
	return fp
}

// Scan processes assets and merges their candidates.
//
// Description:
//
//	Assets run concurrently, at most Workers at a time. The union of
//	candidates follows input order, then the filter rules are applied.
//	Per-asset failures are recorded on the report; see Report.Err.
//
// Inputs:
//
//	ctx - Cancels the scan. Must not be nil.
//	assets - The assets to analyze.
//
// Outputs:
//
//	*Report - The scan result, including failed assets.
//	error - Non-nil only if ctx was canceled.
func (s *Scanner) Scan(ctx context.Context, assets []Asset) (*Report, error) {
	ctx, span := tracer.Start(ctx, "Scanner.Scan")
	defer span.End()

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Assets:    make([]AssetReport, len(assets)),
	}
	span.SetAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Int("assets", len(assets)),
	)
	logger := s.options.Logger.With(slog.String("run_id", report.RunID))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.options.Workers)
	for i, asset := range assets {
		g.Go(func() error {
			ar, err := s.scanAsset(gctx, asset, logger)
			if err != nil {
				return err
			}
			report.Assets[i] = ar
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, "scan canceled")
		return nil, err
	}

	sets := make([][]string, 0, len(report.Assets))
	for _, ar := range report.Assets {
		if ar.Status == StatusFailed {
			report.Failed++
			continue
		}
		sets = append(sets, ar.Candidates)
	}
	report.Candidates = candidates.Union(sets...)
	report.Filtered = candidates.ApplyFilters(report.Candidates, s.options.Rules)
	report.Duration = time.Since(report.StartedAt)

	s.options.Sink.RunCandidates(report.Candidates)
	s.options.Sink.RunFiltered(report.Filtered)

	candidatesGauge.WithLabelValues("valid").Set(float64(len(report.Candidates)))
	candidatesGauge.WithLabelValues("filtered").Set(float64(len(report.Filtered)))

	span.SetAttributes(
		attribute.Int("candidates", len(report.Candidates)),
		attribute.Int("filtered", len(report.Filtered)),
		attribute.Int("failed", report.Failed),
	)
	if report.Failed > 0 {
		span.SetStatus(codes.Error, "asset failures")
	}

	logger.Info("scan complete",
		slog.Int("assets", len(assets)),
		slog.Int("failed", report.Failed),
		slog.Int("candidates", len(report.Candidates)),
		slog.Int("filtered", len(report.Filtered)),
		slog.Duration("duration", report.Duration),
	)
	if s.options.Sink.Enabled() {
		logger.Info("debug dumps written",
			slog.String("dir", s.options.Sink.Dir()),
			slog.Int64("files", s.options.Sink.Written()),
		)
	}
	return report, nil
}

// ScanSource scans a single in-memory artifact.
func (s *Scanner) ScanSource(ctx context.Context, name, source string) (*Report, error) {
	return s.Scan(ctx, []Asset{SourceAsset(name, []byte(source))})
}

// scanAsset processes one asset. The returned error is non-nil only for
// cancellation; every other failure is recorded on the AssetReport.
func (s *Scanner) scanAsset(ctx context.Context, asset Asset, logger *slog.Logger) (ar AssetReport, err error) {
	ctx, span := tracer.Start(ctx, "Scanner.scanAsset")
	defer span.End()
	span.SetAttributes(attribute.String("asset", asset.Name))

	start := time.Now()
	ar = AssetReport{Name: asset.Name, Size: asset.Size}
	defer func() {
		ar.Duration = time.Since(start)
		assetDurationSeconds.Observe(ar.Duration.Seconds())
		if ar.Status != "" {
			assetsTotal.WithLabelValues(string(ar.Status)).Inc()
		}
	}()

	fail := func(err error) (AssetReport, error) {
		ar.Status = StatusFailed
		ar.Err = newAssetError(asset.Name, err)
		ar.Error = ar.Err.Error()
		span.SetStatus(codes.Error, "asset failed")
		logger.Error("asset failed", slog.String("asset", asset.Name), slog.String("error", ar.Error))
		return ar, nil
	}

	data, err := asset.Read()
	if err != nil {
		return fail(err)
	}
	ar.Size = int64(len(data))

	key := cache.Key(data, s.fingerprint())
	// Debug dumps need every stage, so a run with the sink enabled
	// recomputes and only refreshes the cache.
	if !s.options.Sink.Enabled() {
		if cached, ok := s.loadCached(ctx, key, logger); ok {
			s.replayWarnings(ctx, &ar, cached.Warnings)
			ar.Status = StatusCached
			ar.Literals = cached.Literals
			ar.Candidates = cached.Candidates
			span.SetAttributes(
				attribute.Bool("cached", true),
				attribute.Int("parse_failures", ar.ParseFailures),
			)
			return ar, nil
		}
	}

	rec := &extract.Recorder{}
	extractor := extract.NewExtractor(s.tokenizer,
		extract.WithMaxDepth(s.options.MaxDepth),
		extract.WithReporter(extract.MultiReporter{s.options.Reporter, rec}),
		extract.WithSnapshotter(s.options.Sink),
	)

	literals, err := extractor.Extract(ctx, string(data), asset.Name)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ar, err
		}
		return fail(err)
	}

	events := rec.Events()
	for _, ev := range events {
		eventsTotal.WithLabelValues(string(ev.Kind)).Inc()
		switch ev.Kind {
		case extract.EventParseFailure:
			ar.ParseFailures++
		case extract.EventDepthExceeded:
			ar.DepthExceeded++
		}
	}

	words := candidates.Words(literals)
	s.options.Sink.DistinctWords(asset.Name, words)
	valid := candidates.ValidClassNames(words)
	s.options.Sink.ValidClassNames(asset.Name, valid)

	ar.Status = StatusOK
	ar.Literals = len(literals)
	ar.Candidates = valid
	literalsTotal.Add(float64(len(literals)))

	s.saveCached(ctx, key, cache.Record{
		Candidates: valid,
		Literals:   len(literals),
		Warnings:   cache.WarningsFromEvents(events),
	}, logger)

	span.SetAttributes(
		attribute.Int("literals", ar.Literals),
		attribute.Int("candidates", len(valid)),
		attribute.Int("parse_failures", ar.ParseFailures),
	)
	logger.Debug("asset scanned",
		slog.String("asset", asset.Name),
		slog.Int64("bytes", ar.Size),
		slog.Int("literals", ar.Literals),
		slog.Int("candidates", len(valid)),
	)
	return ar, nil
}

// replayWarnings sends the warnings stored with a cached record to the
// reporter again and restores the asset's event counts.
func (s *Scanner) replayWarnings(ctx context.Context, ar *AssetReport, warnings []cache.Warning) {
	for _, w := range warnings {
		eventsTotal.WithLabelValues(string(w.Kind)).Inc()
		switch w.Kind {
		case extract.EventParseFailure:
			ar.ParseFailures++
			s.options.Reporter.ParseFailure(ctx, w.Context, &cachedParseError{msg: w.Message})
		case extract.EventDepthExceeded:
			ar.DepthExceeded++
			s.options.Reporter.DepthExceeded(ctx, w.Context, s.options.MaxDepth)
		}
	}
}

// cachedParseError carries a parse failure restored from the cache. Only the
// message survives storage.
type cachedParseError struct {
	msg string
}

func (e *cachedParseError) Error() string { return e.msg }

func (e *cachedParseError) Unwrap() error { return token.ErrParse }

func (s *Scanner) loadCached(ctx context.Context, key string, logger *slog.Logger) (cache.Record, bool) {
	if s.options.Cache == nil {
		return cache.Record{}, false
	}
	rec, ok, err := s.options.Cache.Load(ctx, key)
	switch {
	case err != nil:
		cacheLookupsTotal.WithLabelValues("error").Inc()
		logger.Warn("candidate cache load failed", slog.String("error", err.Error()))
		return cache.Record{}, false
	case !ok:
		cacheLookupsTotal.WithLabelValues("miss").Inc()
		return cache.Record{}, false
	default:
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return rec, true
	}
}

func (s *Scanner) saveCached(ctx context.Context, key string, rec cache.Record, logger *slog.Logger) {
	if s.options.Cache == nil {
		return
	}
	if err := s.options.Cache.Save(ctx, key, rec); err != nil {
		logger.Warn("candidate cache save failed", slog.String("error", err.Error()))
	}
}
