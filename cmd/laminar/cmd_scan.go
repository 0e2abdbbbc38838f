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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/laminar/services/laminar/candidates"
	"github.com/AleutianAI/laminar/services/laminar/config"
	"github.com/AleutianAI/laminar/services/laminar/scan"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan DIR",
		Short: "Scan a build output directory once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := a.newLogger()

			shutdown, err := a.setupTracing()
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			scanner, cleanup, err := a.buildScanner(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := a.scanDir(cmd.Context(), scanner, cfg, args[0])
			if err != nil {
				return err
			}
			return a.emit(report)
		},
	}
}

// scanDir discovers the matching assets under dir and scans them.
func (a *app) scanDir(ctx context.Context, scanner *scan.Scanner, cfg *config.Config, dir string) (*scan.Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan: %s is not a directory", dir)
	}
	assets, err := scan.DiscoverAssets(os.DirFS(dir), cfg.Scan.Extensions)
	if err != nil {
		return nil, err
	}
	return scanner.Scan(ctx, assets)
}

// emit prints report in the selected format and writes the safelist file.
// It returns errAssetFailures when any asset failed.
func (a *app) emit(report *scan.Report) error {
	switch a.flags.format {
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	case "text", "":
		newConsole(a.stdout).Report(report)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", a.flags.format)
	}

	if a.flags.out != "" {
		if err := writeSafelist(a.flags.out, report.Filtered); err != nil {
			return err
		}
	}

	if report.Failed > 0 {
		con := newConsole(a.stderr)
		for _, ar := range report.Assets {
			if ar.Err != nil {
				con.Error(ar.Err.Error())
			}
		}
		return errAssetFailures
	}
	return nil
}

// writeSafelist writes one class name per line in sorted order.
func writeSafelist(path string, names []string) error {
	var b strings.Builder
	for _, name := range candidates.Sorted(names) {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing safelist: %w", err)
	}
	return nil
}
