// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore keeps recent records in memory in front of an optional backing
// Store. Reads fall through to the backing store and populate memory; writes
// go to both.
//
// Thread Safety: Safe for concurrent use.
type LRUStore struct {
	mem     *lru.Cache[string, Record]
	backing Store
	logger  *slog.Logger
}

// NewLRUStore creates a store holding up to size entries in memory.
// backing may be nil.
func NewLRUStore(size int, backing Store, logger *slog.Logger) (*LRUStore, error) {
	mem, err := lru.New[string, Record](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LRUStore{mem: mem, backing: backing, logger: logger}, nil
}

// Load implements Store.
func (s *LRUStore) Load(ctx context.Context, key string) (Record, bool, error) {
	if v, ok := s.mem.Get(key); ok {
		return v.Clone(), true, nil
	}
	if s.backing == nil {
		return Record{}, false, nil
	}

	v, ok, err := s.backing.Load(ctx, key)
	if err != nil || !ok {
		return Record{}, false, err
	}
	s.mem.Add(key, v.Clone())
	return v, true, nil
}

// Save implements Store. The memory entry is updated even when the backing
// store fails.
func (s *LRUStore) Save(ctx context.Context, key string, rec Record) error {
	s.mem.Add(key, rec.Clone())
	if s.backing == nil {
		return nil
	}
	return s.backing.Save(ctx, key, rec)
}

// Len returns the number of entries held in memory.
func (s *LRUStore) Len() int { return s.mem.Len() }
