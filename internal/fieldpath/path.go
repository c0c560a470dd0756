package fieldpath

import (
	"strconv"
	"strings"
)

// Normalize canonicalises a field path into dotted form. Bracket indices
// ("items[2].name") become dotted segments ("items.2.name"), surrounding
// whitespace and stray separators are trimmed, and empty segments are dropped.
func Normalize(path string) string {
	segments := Segments(path)
	if len(segments) == 0 {
		return ""
	}
	return strings.Join(segments, ".")
}

// Segments splits a path into its individual components, accepting both
// dotted and bracket-indexed notation.
func Segments(path string) []string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return nil
	}

	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, ".")
	if clean == "" {
		return nil
	}

	parts := strings.Split(clean, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		out = append(out, segment)
	}
	return out
}

// Join concatenates a parent path and a child segment, omitting empty sides.
func Join(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// Parent returns the path without its final segment, or "" for a root path.
func Parent(path string) string {
	segments := Segments(path)
	if len(segments) <= 1 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], ".")
}

// Leaf returns the final segment of a path.
func Leaf(path string) string {
	segments := Segments(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// IsIndex reports whether a segment is a numeric array index.
func IsIndex(segment string) bool {
	_, err := strconv.Atoi(segment)
	return err == nil
}

// HasPrefix reports whether path sits at or below prefix in the record tree.
// Matching is segment-aware: "items.10" is not under "items.1".
func HasPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+".")
}

// Wildcard replaces every numeric segment with "*" so concrete array paths can
// be matched against declared shapes ("items.2.name" -> "items.*.name").
func Wildcard(path string) string {
	segments := Segments(path)
	if len(segments) == 0 {
		return ""
	}
	out := make([]string, len(segments))
	for i, segment := range segments {
		if IsIndex(segment) {
			out[i] = "*"
			continue
		}
		out[i] = segment
	}
	return strings.Join(out, ".")
}

// Reindex rewrites the array index directly under prefix. The path must sit
// below prefix with a numeric segment next; otherwise it is returned as-is.
func Reindex(path, prefix string, index int) string {
	if !HasPrefix(path, prefix) || path == prefix {
		return path
	}
	rest := strings.TrimPrefix(path, prefix+".")
	segments := strings.SplitN(rest, ".", 2)
	if len(segments) == 0 || !IsIndex(segments[0]) {
		return path
	}
	out := prefix + "." + strconv.Itoa(index)
	if len(segments) == 2 {
		out += "." + segments[1]
	}
	return out
}

// IndexUnder extracts the numeric segment directly below prefix, returning
// false when path does not address an entry of that array.
func IndexUnder(path, prefix string) (int, bool) {
	if !HasPrefix(path, prefix) || path == prefix {
		return 0, false
	}
	rest := strings.TrimPrefix(path, prefix+".")
	head := rest
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		head = rest[:i]
	}
	idx, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return idx, true
}
