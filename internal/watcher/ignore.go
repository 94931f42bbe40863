package watcher

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnore contains patterns ignored in every session.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	".DS_Store",
	"*.tmp",
	"*.swp",
	"*~",
	"*.bak",
}

// ShouldIgnore reports whether path matches one of patterns.
//
// A pattern without a slash matches a single path segment, by name or as
// a glob. A pattern with a slash is a doublestar glob matched against the
// whole slash-separated path, or a literal run of segments.
func ShouldIgnore(path string, patterns []string) bool {
	name := filepath.Base(path)
	normalized := filepath.ToSlash(path)

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/")
		hasGlob := strings.ContainsAny(pattern, "*?[{")

		switch {
		case hasGlob && hasPathSep:
			target := normalized
			if !strings.HasPrefix(pattern, "/") {
				target = strings.TrimPrefix(normalized, "/")
				if !strings.HasPrefix(pattern, "**/") {
					pattern = "**/" + pattern
				}
			}
			if matched, _ := doublestar.Match(pattern, target); matched {
				return true
			}
		case hasGlob:
			if matched, _ := doublestar.Match(pattern, name); matched {
				return true
			}
		default:
			if hasSegments(normalized, pattern) {
				return true
			}
		}
	}
	return false
}

// hasSegments reports whether the segments of pattern appear in path as a
// contiguous run.
func hasSegments(path, pattern string) bool {
	pathParts := splitSegments(path)
	patternParts := splitSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
