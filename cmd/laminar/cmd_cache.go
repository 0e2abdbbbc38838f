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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/laminar/services/laminar/cache"
	badgerstore "github.com/AleutianAI/laminar/services/laminar/storage/badger"
)

// sampleSize bounds how many candidates are printed per entry.
const sampleSize = 8

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Examine the candidate cache",
	}
	cmd.AddCommand(newCacheInspectCmd(a))
	return cmd
}

func newCacheInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "List cached candidate entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Cache.Dir == "" {
				return errors.New("cache inspect: no cache directory configured (use --cache-dir)")
			}

			dbCfg := badgerstore.DefaultConfig()
			dbCfg.Path = cfg.Cache.Dir
			dbCfg.ReadOnly = true
			dbCfg.Logger = nil
			db, err := badgerstore.OpenDB(dbCfg)
			if err != nil {
				return fmt.Errorf("cache inspect: %w", err)
			}
			defer db.Close()

			entries, err := cache.Inspect(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("cache inspect: %w", err)
			}
			return a.printEntries(entries)
		},
	}
}

type entryView struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Size      int       `json:"size"`
	Count     int       `json:"count"`
	Warnings  int       `json:"warnings"`
	Sample    []string  `json:"sample"`
	Error     string    `json:"error,omitempty"`
}

func (a *app) printEntries(entries []cache.Entry) error {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		v := entryView{
			Key:       e.Key,
			ExpiresAt: e.ExpiresAt,
			Size:      e.Size,
			Count:     len(e.Values),
			Warnings:  e.Warnings,
			Sample:    e.Values[:min(len(e.Values), sampleSize)],
		}
		if e.DecodeErr != nil {
			v.Error = e.DecodeErr.Error()
		}
		views = append(views, v)
	}

	if a.flags.format == "json" {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	con := newConsole(a.stdout)
	con.Info("Cache entries:", len(views))
	for _, v := range views {
		expires := "never"
		if !v.ExpiresAt.IsZero() {
			expires = humanize.Time(v.ExpiresAt)
		}
		if v.Error != "" {
			con.Error("  "+shortKey(v.Key), humanize.Bytes(uint64(v.Size)), v.Error)
			continue
		}
		line := []any{humanize.Bytes(uint64(v.Size)), "expires", expires}
		if v.Warnings > 0 {
			line = append(line, fmt.Sprintf("(%d warnings)", v.Warnings))
		}
		line = append(line, fmt.Sprintf("%d names:", v.Count), strings.Join(v.Sample, " "))
		con.Log("  "+shortKey(v.Key), line...)
	}
	return nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
