// Package fieldpath exposes the dotted-path helpers used across the form
// state packages so callers can normalise and compose field paths with the
// exact rules the store applies internally.
package fieldpath

import internalpath "github.com/goliatone/go-formstate/internal/fieldpath"

// Normalize canonicalises a field path into dotted form. Bracket indices
// ("items[2].name") become dotted segments ("items.2.name").
func Normalize(path string) string {
	return internalpath.Normalize(path)
}

// Segments splits a path into its components.
func Segments(path string) []string {
	return internalpath.Segments(path)
}

// Join concatenates a parent path and a child segment, omitting empty sides.
func Join(parent, child string) string {
	return internalpath.Join(parent, child)
}

// Parent returns the path without its final segment, or "" for a root path.
func Parent(path string) string {
	return internalpath.Parent(path)
}

// Wildcard replaces numeric segments with "*" so concrete array paths can be
// matched against declared shapes.
func Wildcard(path string) string {
	return internalpath.Wildcard(path)
}

// Leaf returns the final segment of a path, or "" for an empty path.
func Leaf(path string) string {
	return internalpath.Leaf(path)
}

// Leaves walks a nested record depth-first and reports every leaf path and
// value in dotted form.
func Leaves(root map[string]any, visit func(path string, value any)) {
	internalpath.Leaves(root, visit)
}
