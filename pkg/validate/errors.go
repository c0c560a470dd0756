package validate

import "sort"

// Errors aggregates the outcome of a full validation pass: one message per
// failing field keyed by dotted path, plus form-level messages not owned by
// any field.
type Errors struct {
	Fields map[string]string
	Form   []string
}

// OK reports whether the pass produced no failures at all.
func (e Errors) OK() bool {
	return len(e.Fields) == 0 && len(e.Form) == 0
}

// Paths returns the failing field paths in sorted order.
func (e Errors) Paths() []string {
	if len(e.Fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.Fields))
	for path := range e.Fields {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
