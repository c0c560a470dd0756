// Package schema declares the shape of a form record: which field paths
// exist and what kind of value each holds. A form constructed with a shape
// rejects registrations against undeclared paths, catching path typos at the
// call site instead of leaving silent dead fields behind.
package schema

import (
	"fmt"
	"sort"

	internalpath "github.com/goliatone/go-formstate/internal/fieldpath"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/rules"
)

// Shape is the declared set of field paths for one record layout. Array
// entries are declared with a "*" segment ("items.*.name") and match any
// concrete index. The zero value declares nothing; use New.
type Shape struct {
	fields map[string]model.FieldType
	rules  map[string][]rules.Rule
}

// New returns an empty shape.
func New() *Shape {
	return &Shape{
		fields: make(map[string]model.FieldType),
		rules:  make(map[string][]rules.Rule),
	}
}

// Declare adds a field path with its kind. Paths are normalised; declaring
// the same path twice overwrites the kind. Returns the shape for chaining.
func (s *Shape) Declare(path string, fieldType model.FieldType) *Shape {
	normalized := internalpath.Normalize(path)
	if normalized == "" {
		return s
	}
	s.fields[normalized] = fieldType
	return s
}

// DeclareWithRules adds a field path together with default validation rules
// that Register attaches automatically.
func (s *Shape) DeclareWithRules(path string, fieldType model.FieldType, ruleSet ...rules.Rule) *Shape {
	normalized := internalpath.Normalize(path)
	if normalized == "" {
		return s
	}
	s.fields[normalized] = fieldType
	if len(ruleSet) > 0 {
		s.rules[normalized] = append([]rules.Rule(nil), ruleSet...)
	}
	return s
}

// Allows reports whether a concrete path is covered by the declaration,
// either exactly or through a wildcard array entry.
func (s *Shape) Allows(path string) bool {
	_, ok := s.lookup(path)
	return ok
}

// TypeOf resolves the declared kind of a concrete path.
func (s *Shape) TypeOf(path string) (model.FieldType, bool) {
	return s.lookup(path)
}

// RulesFor returns the default rules declared for a path, matched the same
// way as Allows.
func (s *Shape) RulesFor(path string) []rules.Rule {
	normalized := internalpath.Normalize(path)
	if normalized == "" {
		return nil
	}
	if set, ok := s.rules[normalized]; ok {
		return append([]rules.Rule(nil), set...)
	}
	if set, ok := s.rules[internalpath.Wildcard(normalized)]; ok {
		return append([]rules.Rule(nil), set...)
	}
	return nil
}

// Paths returns every declared path in sorted order.
func (s *Shape) Paths() []string {
	out := make([]string, 0, len(s.fields))
	for path := range s.fields {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of declared paths.
func (s *Shape) Len() int { return len(s.fields) }

// Validate checks the declaration for construction defects carried by
// attached rules (bad patterns, negative bounds).
func (s *Shape) Validate() error {
	for _, path := range s.Paths() {
		for _, rule := range s.rules[path] {
			if err := rule.Err(); err != nil {
				return fmt.Errorf("schema: path %q: %w", path, err)
			}
		}
	}
	return nil
}

func (s *Shape) lookup(path string) (model.FieldType, bool) {
	normalized := internalpath.Normalize(path)
	if normalized == "" {
		return "", false
	}
	if t, ok := s.fields[normalized]; ok {
		return t, true
	}
	if t, ok := s.fields[internalpath.Wildcard(normalized)]; ok {
		return t, true
	}
	return "", false
}
