package apiready

import (
	"strings"
	"unicode"
)

// ComposePath joins base and leaf into a normalized hierarchical path.
// Empty segments are dropped, so the result has exactly one leading "/",
// no trailing "/" and no doubled separators. The root is "/".
// ComposePath(ComposePath(b, l), "") == ComposePath(b, l).
func ComposePath(base, leaf string) string {
	return JoinPath(append(SplitPath(base), SplitPath(leaf)...)...)
}

// SplitPath returns the non-empty segments of path.
func SplitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

// JoinPath builds a normalized path from segments.
func JoinPath(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		for _, part := range SplitPath(s) {
			b.WriteByte('/')
			b.WriteString(part)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// hasSegmentPrefix reports whether segs starts with prefix.
func hasSegmentPrefix(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

// snakeCase converts a Go identifier to snake_case, keeping acronyms
// together: ReadFile -> read_file, HTTPStatus -> http_status.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
