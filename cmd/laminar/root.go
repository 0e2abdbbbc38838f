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
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// errAssetFailures signals that the scan finished but at least one asset
// failed. The failures have already been printed.
var errAssetFailures = errors.New("one or more assets failed")

// rootFlags hold values for the persistent flags.
type rootFlags struct {
	configPath  string
	debug       bool
	out         string
	format      string
	maxDepth    int
	workers     int
	cacheDir    string
	traceStdout bool
}

// app carries the state shared by all subcommands.
type app struct {
	flags  rootFlags
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "laminar",
		Short: "Discover CSS class-name candidates in script bundles",
		Long: `laminar extracts every string literal from compiled JavaScript assets,
following code passed to eval("..."), and reports the words that look like
CSS class names. Use the output as a safelist for stylesheet pruning.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Path to a YAML config file")
	pf.BoolVar(&a.flags.debug, "debug", false, "Write debug dumps and log at debug level")
	pf.StringVar(&a.flags.out, "out", "", "Write the filtered safelist to this file")
	pf.StringVar(&a.flags.format, "format", "text", "Report format: text or json")
	pf.IntVar(&a.flags.maxDepth, "max-depth", 0, "Maximum eval nesting depth (overrides config)")
	pf.IntVar(&a.flags.workers, "workers", 0, "Concurrent assets (overrides config)")
	pf.StringVar(&a.flags.cacheDir, "cache-dir", "", "Candidate cache directory (overrides config)")
	pf.BoolVar(&a.flags.traceStdout, "trace-stdout", false, "Print OpenTelemetry spans to stderr")

	root.AddCommand(
		newScanCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newCacheCmd(a),
	)
	return root
}
