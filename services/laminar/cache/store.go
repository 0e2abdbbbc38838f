// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache stores per-artifact candidate lists keyed by content hash.
//
// Storage layout:
//
//	laminar/candidates/v2/{key}  ->  gob-encoded Record
//	                                 TTL: CacheConfig.TTL (default 7 days)
//
// A key covers the artifact bytes and every tokenizer and extractor setting
// that changes the result, so a changed artifact or setting is simply a miss.
// A Record keeps the warnings raised while scanning so a hit can report them
// again. Stores are advisory: callers log failures and recompute.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/laminar/services/laminar/extract"
	badgerstore "github.com/AleutianAI/laminar/services/laminar/storage/badger"
)

// DefaultTTL is the lifetime of a cached entry when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// KeyPrefix is prepended to every cache key. Versioned so a format change
// never reads old entries.
const KeyPrefix = "laminar/candidates/v2/"

var errCacheMiss = errors.New("cache miss")

// Record is the cached outcome of scanning one artifact.
type Record struct {
	// Candidates are the valid class names in first-occurrence order.
	Candidates []string

	// Literals is the number of decoded literals.
	Literals int

	// Warnings are the recoverable events raised during extraction.
	Warnings []Warning
}

// Warning is one recorded extraction event without its error value.
type Warning struct {
	Kind    extract.EventKind
	Context extract.Context
	Message string
}

// WarningsFromEvents converts recorded events into cacheable warnings.
func WarningsFromEvents(events []extract.Event) []Warning {
	if len(events) == 0 {
		return nil
	}
	out := make([]Warning, len(events))
	for i, ev := range events {
		out[i] = Warning{Kind: ev.Kind, Context: ev.Context, Message: ev.Message}
	}
	return out
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	return Record{
		Candidates: slices.Clone(r.Candidates),
		Literals:   r.Literals,
		Warnings:   slices.Clone(r.Warnings),
	}
}

// Store persists scan records.
//
// Load returns (Record{}, false, nil) on a miss. Implementations must be
// safe for concurrent use.
type Store interface {
	Load(ctx context.Context, key string) (Record, bool, error)
	Save(ctx context.Context, key string, rec Record) error
}

// Key derives a cache key from artifact content and a settings fingerprint.
//
// Outputs:
//
//	string - Lowercase hex SHA256 (64 characters).
func Key(content []byte, settings string) string {
	h := sha256.New()
	fmt.Fprintf(h, "settings=%s\n", settings)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// =============================================================================
// BadgerStore
// =============================================================================

// BadgerStore implements Store on an embedded BadgerDB.
//
// TTL is enforced by BadgerDB; expired keys read as misses.
//
// Thread Safety: Safe for concurrent use.
type BadgerStore struct {
	db     *badgerstore.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewBadgerStore creates a store on db, which the caller owns.
// A non-positive ttl uses DefaultTTL. Panics if db is nil.
func NewBadgerStore(db *badgerstore.DB, ttl time.Duration, logger *slog.Logger) *BadgerStore {
	if db == nil {
		panic("NewBadgerStore: db must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, ttl: ttl, logger: logger}
}

// Load implements Store.
func (s *BadgerStore) Load(ctx context.Context, key string) (Record, bool, error) {
	var raw []byte
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(storeKey(key))
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return errCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get cache key: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy value: %w", err)
		}
		return nil
	})
	if errors.Is(err, errCacheMiss) {
		s.logger.Debug("candidate cache: miss", slog.String("key", shortKey(key)))
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("candidate cache load: %w", err)
	}

	rec, err := gobDecode(raw)
	if err != nil {
		return Record{}, false, fmt.Errorf("candidate cache decode: %w", err)
	}
	s.logger.Debug("candidate cache: hit",
		slog.String("key", shortKey(key)),
		slog.Int("candidates", len(rec.Candidates)),
		slog.Int("warnings", len(rec.Warnings)),
	)
	return rec, true, nil
}

// Save implements Store.
func (s *BadgerStore) Save(ctx context.Context, key string, rec Record) error {
	raw, err := gobEncode(rec)
	if err != nil {
		return fmt.Errorf("candidate cache encode: %w", err)
	}
	err = s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.SetEntry(dgbadger.NewEntry(storeKey(key), raw).WithTTL(s.ttl))
	})
	if err != nil {
		return fmt.Errorf("candidate cache save: %w", err)
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func storeKey(key string) []byte {
	return []byte(KeyPrefix + key)
}

func shortKey(k string) string {
	if len(k) > 8 {
		return k[:8] + "..."
	}
	return k
}

// gobEncode serializes rec using encoding/gob.
func gobEncode(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

// gobDecode deserializes a Record from gob-encoded bytes.
func gobDecode(data []byte) (Record, error) {
	var rec Record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("gob decode: %w", err)
	}
	return rec, nil
}
