package filter

import (
	"path/filepath"
	"strings"
)

// Paths is a set of glob patterns. It implements patch.Matcher.
//
// Besides filepath.Match syntax, a leading "**/" matches in any directory
// and a trailing "/**" matches everything below a directory.
type Paths []string

// Match reports whether path matches any pattern.
func (p Paths) Match(path string) bool {
	return MatchesAny(filepath.ToSlash(path), p)
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchOne(path, pattern) {
			return true
		}
	}
	return false
}

func matchOne(path, pattern string) bool {
	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}
	if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
		if path == dir || strings.HasPrefix(path, dir+"/") {
			return true
		}
		if rest, ok := strings.CutPrefix(dir, "**/"); ok {
			return containsDir(path, rest)
		}
	}
	clean := strings.TrimPrefix(pattern, "**/")
	if clean != pattern {
		if matched, err := filepath.Match(clean, filepath.Base(path)); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(clean, path); err == nil && matched {
			return true
		}
	}
	return false
}

// containsDir reports whether dir is one of the directories of path.
func containsDir(path, dir string) bool {
	parts := strings.Split(path, "/")
	for _, p := range parts[:len(parts)-1] {
		if matched, err := filepath.Match(dir, p); err == nil && matched {
			return true
		}
	}
	return false
}
