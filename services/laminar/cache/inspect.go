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
	"fmt"
	"strings"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	badgerstore "github.com/AleutianAI/laminar/services/laminar/storage/badger"
)

// Entry is one stored candidate list, as seen by Inspect.
type Entry struct {
	// Key is the cache key without KeyPrefix.
	Key string

	// ExpiresAt is zero when the entry has no TTL.
	ExpiresAt time.Time

	// Size is the encoded value size in bytes.
	Size int

	// Values are the decoded candidates. Nil when DecodeErr is set.
	Values []string

	// Warnings is the number of extraction warnings stored with the entry.
	Warnings int

	DecodeErr error
}

// Inspect lists every candidate entry in db in key order.
//
// Description:
//
//	Undecodable values are reported on the Entry rather than failing the
//	listing, so a corrupted cache can still be examined.
//
// Thread Safety: Safe for concurrent use; runs in a read transaction.
func Inspect(ctx context.Context, db *badgerstore.DB) ([]Entry, error) {
	var entries []Entry
	err := db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(KeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			e := Entry{Key: strings.TrimPrefix(string(item.Key()), KeyPrefix)}

			// ExpiresAt is Unix seconds; 0 means no expiry.
			if exp := item.ExpiresAt(); exp > 0 {
				e.ExpiresAt = time.Unix(int64(exp), 0)
			}

			raw, err := item.ValueCopy(nil)
			if err != nil {
				e.DecodeErr = fmt.Errorf("copy value: %w", err)
				entries = append(entries, e)
				continue
			}
			e.Size = len(raw)
			rec, err := gobDecode(raw)
			if err != nil {
				e.DecodeErr = err
			} else {
				e.Values = rec.Candidates
				e.Warnings = len(rec.Warnings)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache inspect: %w", err)
	}
	return entries, nil
}
