// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FindFiles walks every path and returns the files whose extension is one
// of extensions. A path may be a single file, a directory or a glob pattern
// (with ** for any depth). Paths that do not exist are skipped. The result
// is sorted and free of duplicates.
func FindFiles(paths []string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("extensions must not be empty")
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if !slices.Contains(extensions, filepath.Ext(p)) {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	roots, err := expandGlobs(paths)
	if err != nil {
		return nil, err
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// expandGlobs replaces every glob pattern in paths by its matches.
func expandGlobs(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !strings.ContainsAny(p, "*?[{") {
			out = append(out, p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("glob error in %s: %w", p, err)
		}
		out = append(out, matches...)
	}
	return out, nil
}
