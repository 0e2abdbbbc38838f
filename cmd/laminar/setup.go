// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/laminar/services/laminar/ast"
	"github.com/AleutianAI/laminar/services/laminar/cache"
	"github.com/AleutianAI/laminar/services/laminar/config"
	"github.com/AleutianAI/laminar/services/laminar/diagnostics"
	"github.com/AleutianAI/laminar/services/laminar/scan"
	badgerstore "github.com/AleutianAI/laminar/services/laminar/storage/badger"
)

// loadConfig resolves configuration in order: embedded defaults, config
// file, .env and LAMINAR_* variables, then explicitly set flags.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	ctx := cmd.Context()
	config.LoadDotEnv()

	var (
		cfg *config.Config
		err error
	)
	if a.flags.configPath != "" {
		cfg, err = config.LoadFile(ctx, a.flags.configPath)
	} else {
		cfg, err = config.Default(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		cfg.Scan.MaxDepth = a.flags.maxDepth
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = a.flags.workers
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = a.flags.cacheDir
	}
	if a.flags.debug {
		cfg.Debug.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) newLogger() *slog.Logger {
	level := slog.LevelInfo
	if a.flags.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

// buildScanner wires the tokenizer, cache, debug sink and filter rules.
// The returned cleanup closes the cache database.
func (a *app) buildScanner(cfg *config.Config, logger *slog.Logger) (*scan.Scanner, func(), error) {
	rules, err := cfg.Filters.Rules()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var store cache.Store
	if cfg.Cache.Dir != "" {
		dbCfg := badgerstore.DefaultConfig()
		dbCfg.Path = cfg.Cache.Dir
		dbCfg.Logger = logger
		db, err := badgerstore.OpenDB(dbCfg)
		if err != nil {
			logger.Warn("candidate cache unavailable, continuing without it",
				slog.String("path", cfg.Cache.Dir),
				slog.String("error", err.Error()),
			)
		} else {
			store = cache.NewBadgerStore(db, cfg.Cache.TTL, logger)
			cleanup = func() {
				if err := db.Close(); err != nil {
					logger.Warn("closing candidate cache failed", slog.String("error", err.Error()))
				}
			}
		}
	}
	if cfg.Cache.LRUSize > 0 {
		mem, err := cache.NewLRUStore(cfg.Cache.LRUSize, store, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("creating memory cache: %w", err)
		}
		store = mem
	}

	tokenizer := ast.NewJavaScriptTokenizer(ast.WithMaxSourceSize(cfg.Scan.MaxSourceBytes))
	scanner := scan.NewScanner(tokenizer,
		scan.WithScanMaxDepth(cfg.Scan.MaxDepth),
		scan.WithWorkers(cfg.Scan.Workers),
		scan.WithRules(rules),
		scan.WithCache(store),
		scan.WithSink(diagnostics.NewFileSink(cfg.Debug.Dir, cfg.Debug.Enabled, logger)),
		scan.WithLogger(logger),
	)
	return scanner, cleanup, nil
}

// setupTracing installs a stdout span exporter when --trace-stdout is set.
// The returned function flushes and shuts the provider down.
func (a *app) setupTracing() (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !a.flags.traceStdout {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(a.stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
