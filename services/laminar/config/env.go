// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file configuration.
const (
	EnvMaxDepth = "LAMINAR_MAX_DEPTH"
	EnvWorkers  = "LAMINAR_WORKERS"
	EnvCacheDir = "LAMINAR_CACHE_DIR"
	EnvDebug    = "LAMINAR_DEBUG"
	EnvAddr     = "LAMINAR_ADDR"
)

// LoadDotEnv loads a .env file into the process environment if present.
// Variables already set are not overwritten. A missing file is ignored.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// ApplyEnv overrides cfg with LAMINAR_* environment variables and
// revalidates it.
//
// Inputs:
//
//	cfg - The configuration to modify. Must not be nil.
//
// Outputs:
//
//	error - Non-nil if a variable cannot be parsed or the result is invalid.
func ApplyEnv(cfg *Config) error {
	if v, ok := lookup(EnvMaxDepth); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config.ApplyEnv: %s: %w", EnvMaxDepth, err)
		}
		cfg.Scan.MaxDepth = n
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config.ApplyEnv: %s: %w", EnvWorkers, err)
		}
		cfg.Scan.Workers = n
	}
	if v, ok := lookup(EnvCacheDir); ok {
		cfg.Cache.Dir = v
	}
	if v, ok := lookup(EnvDebug); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config.ApplyEnv: %s: %w", EnvDebug, err)
		}
		cfg.Debug.Enabled = b
	}
	if v, ok := lookup(EnvAddr); ok {
		cfg.Server.Addr = v
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config.ApplyEnv: %w", err)
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
