// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger wraps an embedded BadgerDB instance with context-aware
// transaction helpers.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// ErrClosed is returned by transaction helpers after Close.
var ErrClosed = errors.New("badger db closed")

// Config configures OpenDB.
type Config struct {
	// Path is the data directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps all data in memory. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// ReadOnly opens an existing on-disk database without write access.
	ReadOnly bool

	// Logger receives badger's internal warnings and errors.
	// Nil silences badger.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration for an on-disk database.
// The caller sets Path.
func DefaultConfig() Config {
	return Config{Logger: slog.Default()}
}

// InMemoryConfig returns the configuration for an in-memory database.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// DB is an opened BadgerDB instance.
//
// Thread Safety: Safe for concurrent use.
type DB struct {
	db   *dgbadger.DB
	path string
}

// OpenDB opens the database described by cfg.
//
// Inputs:
//
//	cfg - The configuration. Path must be set unless InMemory is true.
//
// Outputs:
//
//	*DB - The opened database. The caller owns it and must Close it.
//	error - Non-nil if the database cannot be opened.
func OpenDB(cfg Config) (*DB, error) {
	var opts dgbadger.Options
	if cfg.InMemory {
		opts = dgbadger.DefaultOptions("").WithInMemory(true)
	} else {
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("badger.OpenDB: path must not be empty")
		}
		opts = dgbadger.DefaultOptions(cfg.Path).WithReadOnly(cfg.ReadOnly)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(slogAdapter{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger.OpenDB: %w", err)
	}
	return &DB{db: db, path: cfg.Path}, nil
}

// Path returns the data directory, empty for in-memory databases.
func (d *DB) Path() string { return d.path }

// WithTxn runs fn in a read-write transaction and commits it.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.db.IsClosed() {
		return ErrClosed
	}
	return d.db.Update(fn)
}

// WithReadTxn runs fn in a read-only transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.db.IsClosed() {
		return ErrClosed
	}
	return d.db.View(fn)
}

// Close closes the database. Closing twice is a no-op.
func (d *DB) Close() error {
	if d.db.IsClosed() {
		return nil
	}
	return d.db.Close()
}

// slogAdapter implements dgbadger.Logger on top of slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.logger.Error("badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (a slogAdapter) Warningf(format string, args ...any) {
	a.logger.Warn("badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (a slogAdapter) Infof(format string, args ...any) {
	a.logger.Debug("badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug("badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}
