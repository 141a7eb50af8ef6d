package graph

import "strings"

// MatchGlob reports whether a slash-separated path matches a glob pattern.
// `**` matches any sequence including separators, `*` any sequence within
// one segment, and `?` a single non-separator character. A malformed
// pattern fails closed and matches nothing. Matching is case-insensitive
// since the patterns describe paths on case-preserving filesystems.
func MatchGlob(pattern, path string) bool {
	pattern = strings.ToLower(filepathToSlash(pattern))
	path = strings.ToLower(filepathToSlash(path))
	return matchGlob(pattern, path, 0)
}

const maxGlobDepth = 64

func matchGlob(pattern, path string, depth int) bool {
	if depth > maxGlobDepth {
		return false // runaway pattern, fail closed
	}
	for len(pattern) > 0 {
		switch {
		case strings.HasPrefix(pattern, "**"):
			rest := strings.TrimPrefix(pattern, "**")
			// "**/" may also consume nothing, so try the bare rest too.
			rest = strings.TrimPrefix(rest, "/")
			if rest == "" {
				return true
			}
			for i := 0; i <= len(path); i++ {
				if (i == 0 || path[i-1] == '/') && matchGlob(rest, path[i:], depth+1) {
					return true
				}
			}
			return false
		case pattern[0] == '*':
			rest := pattern[1:]
			for i := 0; i <= len(path); i++ {
				if matchGlob(rest, path[i:], depth+1) {
					return true
				}
				if i < len(path) && path[i] == '/' {
					break // single star never crosses a separator
				}
			}
			return false
		case pattern[0] == '?':
			if len(path) == 0 || path[0] == '/' {
				return false
			}
			pattern, path = pattern[1:], path[1:]
		default:
			if len(path) == 0 || path[0] != pattern[0] {
				return false
			}
			pattern, path = pattern[1:], path[1:]
		}
	}
	return len(path) == 0
}

func filepathToSlash(s string) string {
	return strings.ReplaceAll(s, "\\", "/")
}
