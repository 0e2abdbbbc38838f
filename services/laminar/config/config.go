// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads laminar configuration from YAML with embedded
// defaults, environment overrides and validation.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/laminar/services/laminar/candidates"
)

var tracer = otel.Tracer("laminar.config")

// =============================================================================
// Embedded Defaults
// =============================================================================

//go:embed default_config.yaml
var defaultConfigYAML []byte

// MaxYAMLFileSize bounds the size of a config document.
const MaxYAMLFileSize = 1 << 20

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the complete laminar configuration.
//
// Thread Safety: Not safe for concurrent mutation. Treat as immutable after
// Load returns.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Filters FiltersConfig `yaml:"filters"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Debug   DebugConfig   `yaml:"debug"`
}

// ScanConfig controls asset discovery and extraction.
type ScanConfig struct {
	// Extensions are the file extensions treated as script artifacts.
	Extensions []string `yaml:"extensions" validate:"min=1,dive,startswith=."`

	// MaxDepth is the deepest eval nesting level analyzed.
	MaxDepth int `yaml:"max_depth" validate:"gte=1,lte=1024"`

	// Workers is the number of assets processed concurrently.
	// Zero is replaced by GOMAXPROCS when loading.
	Workers int `yaml:"workers" validate:"gte=0,lte=1024"`

	// MaxSourceBytes bounds the size of one artifact.
	MaxSourceBytes int `yaml:"max_source_bytes" validate:"gte=0"`
}

// FiltersConfig is the user-facing form of candidates.FilterRules.
type FiltersConfig struct {
	// Include and Exclude are regular expressions in RE2 syntax.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	SkipAllUpperCase bool `yaml:"skip_all_upper_case"`
	OnlyAllLowerCase bool `yaml:"only_all_lower_case"`

	// MinLength and MaxLength are disabled when absent.
	MinLength *int `yaml:"min_length" validate:"omitempty,gte=0"`
	MaxLength *int `yaml:"max_length" validate:"omitempty,gte=0"`
}

// CacheConfig controls the per-artifact candidate cache.
type CacheConfig struct {
	// Dir is the badger directory. Empty disables the on-disk cache.
	Dir string `yaml:"dir"`

	// TTL is how long cached candidates stay valid.
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`

	// LRUSize is the number of entries kept in memory. Zero disables it.
	LRUSize int `yaml:"lru_size" validate:"gte=0"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr          string  `yaml:"addr" validate:"required"`
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gt=0"`
	Burst         int     `yaml:"burst" validate:"gte=1"`
}

// DebugConfig controls diagnostic dumps.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir" validate:"required_if=Enabled true"`
}

// =============================================================================
// Loading
// =============================================================================

// Default returns the embedded default configuration.
//
// Inputs:
//
//	ctx - Context for tracing.
//
// Outputs:
//
//	*Config - The defaults. A fresh copy on every call.
//	error - Non-nil only if the embedded document is broken.
func Default(ctx context.Context) (*Config, error) {
	return Load(ctx, nil)
}

// Load parses YAML bytes on top of the embedded defaults.
//
// Description:
//
//	The embedded defaults are decoded first; data then overrides any key it
//	sets. Workers of zero become GOMAXPROCS. The result is validated with
//	struct tags and cross-field checks (min_length <= max_length, every
//	filter pattern compiles).
//
// Inputs:
//
//	ctx - Context for tracing.
//	data - YAML document. Empty means defaults only.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Non-nil if parsing or validation fails.
func Load(ctx context.Context, data []byte) (*Config, error) {
	_, span := tracer.Start(ctx, "config.Load")
	defer span.End()

	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("config.Load: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var cfg Config
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parsing defaults: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parsing YAML: %w", err)
		}
	}

	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = runtime.GOMAXPROCS(0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	span.SetAttributes(
		attribute.StringSlice("extensions", cfg.Scan.Extensions),
		attribute.Int("max_depth", cfg.Scan.MaxDepth),
		attribute.Int("workers", cfg.Scan.Workers),
		attribute.Bool("cache_enabled", cfg.Cache.Dir != ""),
		attribute.Bool("debug", cfg.Debug.Enabled),
	)

	slog.Debug("laminar config loaded",
		slog.Int("max_depth", cfg.Scan.MaxDepth),
		slog.Int("workers", cfg.Scan.Workers),
		slog.Int("include_rules", len(cfg.Filters.Include)),
		slog.Int("exclude_rules", len(cfg.Filters.Exclude)),
	)

	return &cfg, nil
}

// LoadFile reads and parses the YAML file at path.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadFile: %w", err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("config.LoadFile: %s exceeds maximum size (%d > %d)", path, info.Size(), MaxYAMLFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadFile: %w", err)
	}
	return Load(ctx, data)
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	f := c.Filters
	if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
		return fmt.Errorf("%w: filters.min_length (%d) > filters.max_length (%d)", ErrInvalidConfig, *f.MinLength, *f.MaxLength)
	}
	if _, err := f.Rules(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Rules compiles the filter configuration.
//
// Outputs:
//
//	candidates.FilterRules - Ready-to-use rules.
//	error - Non-nil if any include or exclude pattern is not valid RE2.
func (f FiltersConfig) Rules() (candidates.FilterRules, error) {
	include, err := compileAll("include", f.Include)
	if err != nil {
		return candidates.FilterRules{}, err
	}
	exclude, err := compileAll("exclude", f.Exclude)
	if err != nil {
		return candidates.FilterRules{}, err
	}

	rules := candidates.FilterRules{
		Include:          include,
		Exclude:          exclude,
		SkipAllUpperCase: f.SkipAllUpperCase,
		OnlyAllLowerCase: f.OnlyAllLowerCase,
	}
	if f.MinLength != nil {
		rules.MinLength = candidates.Length(*f.MinLength)
	}
	if f.MaxLength != nil {
		rules.MaxLength = candidates.Length(*f.MaxLength)
	}
	return rules, nil
}

func compileAll(field string, exprs []string) ([]candidates.Matcher, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]candidates.Matcher, 0, len(exprs))
	for i, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("filters.%s[%d]: %w", field, i, err)
		}
		out = append(out, candidates.Pattern(re))
	}
	return out, nil
}
