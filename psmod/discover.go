/*
This Source Code Form is subject to the terms of the Mozilla Public
License, v. 2.0. If a copy of the MPL was not distributed with this
file, You can obtain one at https://mozilla.org/MPL/2.0/.
*/

package psmod

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const formatSuffix = ".format.ps1xml"

// BuildOptions configures one assembly run.
type BuildOptions struct {
	// SourcePath is the root of the source tree to scan.
	SourcePath string
	// MaxDepth bounds directory traversal below SourcePath; 0 means
	// unbounded.
	MaxDepth int
	// Exclude holds base-name glob patterns to skip.
	Exclude []string
	// Parallelism caps concurrent file parsing; 0 means one worker per file.
	Parallelism int

	Options []Option
}

// DiscoverSources walks the source tree and returns the script and resource
// file paths in deterministic lexicographic order.
func DiscoverSources(root string, maxDepth int, exclude []string) (scripts, resources []string, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if maxDepth > 0 && rel != "." && strings.Count(rel, string(filepath.Separator))+1 >= maxDepth {
				return fs.SkipDir
			}
			return nil
		}
		for _, pattern := range exclude {
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				return nil
			}
		}

		name := strings.ToLower(d.Name())
		switch {
		case strings.HasSuffix(name, formatSuffix):
			resources = append(resources, path)
		case strings.HasSuffix(name, ".ps1"):
			scripts = append(scripts, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return scripts, resources, nil
}

// Build runs one full assembly: discover sources, classify them, and fold
// everything into a fresh Assembler. Classification of independent files runs
// concurrently, but results fold into the aggregate strictly in discovery
// order, so diagnostics and output match a sequential run byte for byte.
func Build(opts BuildOptions) (*Assembler, error) {
	scripts, resources, err := DiscoverSources(opts.SourcePath, opts.MaxDepth, opts.Exclude)
	if err != nil {
		return nil, err
	}

	// Classification errors are collected per file and reported in discovery
	// order, so the terminating diagnostic does not depend on scheduling.
	files := make([]*SourceFile, len(scripts))
	errs := make([]error, len(scripts))
	var g errgroup.Group
	if opts.Parallelism != 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, path := range scripts {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				errs[i] = err
				return nil
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			files[i], errs[i] = ClassifyFile(path, name, string(data))
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	a := NewAssembler(opts.Options...)
	for _, f := range files {
		if err := a.AddFile(f); err != nil {
			return nil, err
		}
	}
	for _, path := range resources {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := a.AddFormatResource(path, data); err != nil {
			return nil, err
		}
	}
	return a, nil
}
