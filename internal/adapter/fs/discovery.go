// Package fs finds observation files on disk, reads their receipt times and
// watches the dcom tree for arrivals.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover returns the sorted, deduplicated absolute paths of regular files
// matching any of the glob patterns. Missing directories match nothing.
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		pattern, err := absPattern(pattern)
		if err != nil {
			return nil, err
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}

		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !seen[abs] {
				seen[abs] = true
				result = append(result, abs)
			}
		}
	}

	sort.Strings(result)
	return result, nil
}

// MatchesAny reports whether path matches any of the glob patterns. Relative
// paths and patterns are resolved against the working directory.
func MatchesAny(path string, patterns []string) bool {
	path, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, pattern := range patterns {
		pattern, err := absPattern(pattern)
		if err != nil {
			continue
		}
		if ok, _ := doublestar.PathMatch(pattern, path); ok {
			return true
		}
	}
	return false
}

func absPattern(pattern string) (string, error) {
	if filepath.IsAbs(pattern) {
		return pattern, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, pattern), nil
}

// staticPrefix returns the longest directory path before the first glob character.
func staticPrefix(pattern string) string {
	for i, c := range pattern {
		if c == '*' || c == '?' || c == '[' || c == '{' {
			return filepath.Dir(pattern[:i])
		}
	}
	return pattern
}

// dirPatterns expands each directory glob into its ancestors down to the static
// prefix, so /dcom/*/wgrdbul/adt yields /dcom, /dcom/*, /dcom/*/wgrdbul and
// /dcom/*/wgrdbul/adt.
func dirPatterns(patterns []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		pattern = filepath.Clean(pattern)
		root := staticPrefix(pattern)

		var chain []string
		for p := pattern; ; p = filepath.Dir(p) {
			chain = append(chain, p)
			if p == root || p == filepath.Dir(p) {
				break
			}
		}
		for i := len(chain) - 1; i >= 0; i-- {
			if !seen[chain[i]] {
				seen[chain[i]] = true
				out = append(out, chain[i])
			}
		}
	}
	return out
}
