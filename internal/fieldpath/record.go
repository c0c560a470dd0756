package fieldpath

import (
	"fmt"
	"strconv"
)

// Get resolves a dotted path into a nested record of maps and slices.
func Get(root map[string]any, path string) (any, bool) {
	segments := Segments(path)
	if root == nil || len(segments) == 0 {
		return nil, false
	}
	current := any(root)
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set writes a value at a dotted path, creating intermediate maps and slices
// as needed. Numeric segments address slices; slices are grown to fit.
func Set(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("fieldpath: root record is nil")
	}
	segments := Segments(path)
	if len(segments) == 0 {
		return fmt.Errorf("fieldpath: empty path")
	}
	_, err := setSegments(root, segments, value)
	return err
}

// setSegments walks container nodes recursively so slice growth can be
// written back into the parent container.
func setSegments(container any, segments []string, value any) (any, error) {
	segment := segments[0]
	last := len(segments) == 1

	switch node := container.(type) {
	case map[string]any:
		if last {
			node[segment] = value
			return node, nil
		}
		child, err := childContainer(node[segment], segments[1])
		if err != nil {
			return nil, fmt.Errorf("fieldpath: at %q: %w", segment, err)
		}
		updated, err := setSegments(child, segments[1:], value)
		if err != nil {
			return nil, err
		}
		node[segment] = updated
		return node, nil

	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("fieldpath: expected numeric segment, got %q", segment)
		}
		if idx < 0 {
			return nil, fmt.Errorf("fieldpath: negative index %d", idx)
		}
		for len(node) <= idx {
			node = append(node, nil)
		}
		if last {
			node[idx] = value
			return node, nil
		}
		child, err := childContainer(node[idx], segments[1])
		if err != nil {
			return nil, fmt.Errorf("fieldpath: at %q: %w", segment, err)
		}
		updated, err := setSegments(child, segments[1:], value)
		if err != nil {
			return nil, err
		}
		node[idx] = updated
		return node, nil

	default:
		return nil, fmt.Errorf("fieldpath: unexpected container for segment %q", segment)
	}
}

func childContainer(existing any, nextSegment string) (any, error) {
	if IsIndex(nextSegment) {
		switch typed := existing.(type) {
		case nil:
			return []any{}, nil
		case []any:
			return typed, nil
		default:
			return nil, fmt.Errorf("fieldpath: expected slice, found %T", existing)
		}
	}
	switch typed := existing.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return typed, nil
	default:
		return nil, fmt.Errorf("fieldpath: expected map, found %T", existing)
	}
}

// Delete removes the value at path. Deleting a slice entry removes it and
// shifts later entries down. Missing paths are a no-op.
func Delete(root map[string]any, path string) {
	segments := Segments(path)
	if root == nil || len(segments) == 0 {
		return
	}
	if len(segments) == 1 {
		delete(root, segments[0])
		return
	}

	parentPath := segments[:len(segments)-1]
	leaf := segments[len(segments)-1]
	parent, ok := Get(root, joinSegments(parentPath))
	if !ok {
		return
	}

	switch node := parent.(type) {
	case map[string]any:
		delete(node, leaf)
	case []any:
		idx, err := strconv.Atoi(leaf)
		if err != nil || idx < 0 || idx >= len(node) {
			return
		}
		trimmed := append(node[:idx], node[idx+1:]...)
		// The shortened slice must be written back into its own parent.
		if err := Set(root, joinSegments(parentPath), trimmed); err != nil {
			return
		}
	}
}

func joinSegments(segments []string) string {
	out := ""
	for _, segment := range segments {
		out = Join(out, segment)
	}
	return out
}

// Clone deep-copies a record value built from maps, slices, and scalars.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = Clone(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = Clone(v)
		}
		return clone
	default:
		return typed
	}
}

// CloneRecord deep-copies a nested record, returning an empty map for nil.
func CloneRecord(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = Clone(v)
	}
	return out
}

// Leaves walks a record depth-first and reports every leaf path and value.
func Leaves(root map[string]any, visit func(path string, value any)) {
	walkLeaves("", root, visit)
}

func walkLeaves(prefix string, value any, visit func(string, any)) {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 && prefix != "" {
			visit(prefix, typed)
			return
		}
		for k, v := range typed {
			walkLeaves(Join(prefix, k), v, visit)
		}
	case []any:
		if len(typed) == 0 && prefix != "" {
			visit(prefix, typed)
			return
		}
		for i, v := range typed {
			walkLeaves(Join(prefix, strconv.Itoa(i)), v, visit)
		}
	default:
		if prefix != "" {
			visit(prefix, typed)
		}
	}
}
