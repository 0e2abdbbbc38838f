// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// laminar discovers stylesheet class-name candidates in compiled script
// bundles.
//
// Every string literal in a bundle is decoded, including literals nested
// inside eval("...") calls, then split into words. Words shaped like a CSS
// class name become candidates, which are merged across assets and filtered
// by the configured rules. The result is written as a safelist for a
// stylesheet pruning tool.
//
// Usage:
//
//	laminar scan DIR [--out safelist.txt] [--format text|json]
//	laminar watch DIR --out safelist.txt
//	laminar serve [--config laminar.yaml]
//	laminar cache inspect --cache-dir DIR
//
// Exit codes:
//
//	0 - success, including assets with recoverable parse failures
//	1 - an asset failed to decode, or a command error
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errAssetFailures) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
