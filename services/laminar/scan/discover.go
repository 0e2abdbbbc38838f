// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scan

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Asset is one script artifact to analyze.
type Asset struct {
	// Name identifies the asset in reports, logs and debug dumps.
	Name string

	// Size is the asset size in bytes.
	Size int64

	fsys fs.FS
	path string
	data []byte
}

// SourceAsset wraps in-memory content as an Asset.
func SourceAsset(name string, data []byte) Asset {
	return Asset{Name: name, Size: int64(len(data)), data: data}
}

// Read returns the asset content.
func (a Asset) Read() ([]byte, error) {
	if a.fsys == nil {
		return a.data, nil
	}
	data, err := fs.ReadFile(a.fsys, a.path)
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", a.Name, err)
	}
	return data, nil
}

// FormattedFilename returns name without a trailing "?query" part, as used
// by bundlers for cache-busting hashes.
func FormattedFilename(name string) string {
	base, _, _ := strings.Cut(name, "?")
	return base
}

// IsFileOfTypes reports whether name, ignoring any "?query", has one of the
// given extensions. Extensions include the leading dot.
func IsFileOfTypes(name string, extensions []string) bool {
	ext := path.Ext(FormattedFilename(name))
	if ext == "" {
		return false
	}
	return slices.Contains(extensions, ext)
}

// DiscoverAssets walks fsys and returns every regular file with one of the
// given extensions, sorted by name.
//
// Inputs:
//
//	fsys - The file system to walk, typically os.DirFS(dir).
//	extensions - Extensions to accept, e.g. [".js"].
//
// Outputs:
//
//	[]Asset - Matching assets named by their slash-separated path in fsys.
//	error - Non-nil if the walk fails.
func DiscoverAssets(fsys fs.FS, extensions []string) ([]Asset, error) {
	var assets []Asset
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsFileOfTypes(p, extensions) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		assets = append(assets, Asset{Name: p, Size: info.Size(), fsys: fsys, path: p})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering assets: %w", err)
	}

	slices.SortFunc(assets, func(a, b Asset) int { return strings.Compare(a.Name, b.Name) })
	return assets, nil
}
