// Package rules defines the validation constraints that can be attached to a
// field path at registration time. Built-in kinds mirror the canonical
// OpenAPI-derived constraints (required, min/max, minLength/maxLength,
// pattern); custom kinds wrap caller-supplied checks, synchronous or
// asynchronous.
package rules

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goliatone/go-formstate/internal/fieldpath"
)

// Kind identifies a validation rule category.
type Kind string

const (
	KindRequired    Kind = "required"
	KindMin         Kind = "min"
	KindMax         Kind = "max"
	KindMinLength   Kind = "minLength"
	KindMaxLength   Kind = "maxLength"
	KindPattern     Kind = "pattern"
	KindCustom      Kind = "custom"
	KindCustomAsync Kind = "customAsync"
)

// CheckFunc is a caller-supplied validator. It receives the field value and a
// snapshot of the whole record for cross-field checks, and returns an error
// whose message becomes the field error.
type CheckFunc func(ctx context.Context, value any, record map[string]any) error

// Rule is a single validation constraint. Rules are immutable values; the
// With* methods return modified copies. Numeric bounds and length limits
// encode their threshold in Params so message templates can interpolate them.
type Rule struct {
	kind    Kind
	params  map[string]string
	message string
	deps    []string

	check    func(value any) bool
	custom   CheckFunc
	async    bool
	buildErr error
}

// Kind returns the rule category.
func (r Rule) Kind() Kind { return r.kind }

// Params returns the rule's parameter map (threshold values, pattern source).
func (r Rule) Params() map[string]string { return r.params }

// Message returns the override message, or "" when the catalog default applies.
func (r Rule) Message() string { return r.message }

// Deps returns extra field paths whose changes force re-validation of the
// field this rule is attached to.
func (r Rule) Deps() []string { return r.deps }

// Async reports whether the rule wraps an asynchronous custom check.
func (r Rule) Async() bool { return r.async }

// Err surfaces construction problems (an invalid pattern, a negative length
// bound). Registration fails when any attached rule carries an error; rule
// misuse is a caller defect, not a runtime validation outcome.
func (r Rule) Err() error { return r.buildErr }

// WithMessage overrides the catalog message for this rule.
func (r Rule) WithMessage(message string) Rule {
	r.message = message
	return r
}

// DependsOn declares extra paths that trigger re-validation of the field this
// rule is attached to whenever they change.
func (r Rule) DependsOn(paths ...string) Rule {
	deps := make([]string, 0, len(r.deps)+len(paths))
	deps = append(deps, r.deps...)
	for _, path := range paths {
		if normalized := fieldpath.Normalize(path); normalized != "" {
			deps = append(deps, normalized)
		}
	}
	r.deps = deps
	return r
}

// Required fails for nil values, empty strings, and empty slices or maps.
func Required() Rule {
	return Rule{
		kind:  KindRequired,
		check: func(value any) bool { return !isEmpty(value) },
	}
}

// Min constrains numeric values to be at least the given bound.
func Min(bound float64) Rule {
	return Rule{
		kind:   KindMin,
		params: map[string]string{"min": formatBound(bound)},
		check: func(value any) bool {
			n, ok := toFloat(value)
			if !ok {
				return true
			}
			return n >= bound
		},
	}
}

// Max constrains numeric values to be at most the given bound.
func Max(bound float64) Rule {
	return Rule{
		kind:   KindMax,
		params: map[string]string{"max": formatBound(bound)},
		check: func(value any) bool {
			n, ok := toFloat(value)
			if !ok {
				return true
			}
			return n <= bound
		},
	}
}

// MinLength constrains the length of strings (in runes) and slices.
func MinLength(bound int) Rule {
	rule := Rule{
		kind:   KindMinLength,
		params: map[string]string{"minLength": strconv.Itoa(bound)},
		check: func(value any) bool {
			n, ok := lengthOf(value)
			if !ok {
				return true
			}
			return n >= bound
		},
	}
	if bound < 0 {
		rule.buildErr = fmt.Errorf("rules: minLength bound %d is negative", bound)
	}
	return rule
}

// MaxLength constrains the length of strings (in runes) and slices.
func MaxLength(bound int) Rule {
	rule := Rule{
		kind:   KindMaxLength,
		params: map[string]string{"maxLength": strconv.Itoa(bound)},
		check: func(value any) bool {
			n, ok := lengthOf(value)
			if !ok {
				return true
			}
			return n <= bound
		},
	}
	if bound < 0 {
		rule.buildErr = fmt.Errorf("rules: maxLength bound %d is negative", bound)
	}
	return rule
}

// Pattern constrains string values to match the given regular expression.
// A pattern that does not compile surfaces through Rule.Err at registration.
func Pattern(expr string) Rule {
	rule := Rule{
		kind:   KindPattern,
		params: map[string]string{"pattern": expr},
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		rule.buildErr = fmt.Errorf("rules: compile pattern %q: %w", expr, err)
		return rule
	}
	rule.check = func(value any) bool {
		s, ok := value.(string)
		if !ok || s == "" {
			return true
		}
		return re.MatchString(s)
	}
	return rule
}

// Custom wraps a synchronous caller-supplied check.
func Custom(fn CheckFunc) Rule {
	rule := Rule{kind: KindCustom, custom: fn}
	if fn == nil {
		rule.buildErr = fmt.Errorf("rules: custom check is nil")
	}
	return rule
}

// CustomAsync wraps an asynchronous caller-supplied check. While the check is
// pending the field reports a validating state and keeps its previous error;
// a result for a superseded value is discarded.
func CustomAsync(fn CheckFunc) Rule {
	rule := Rule{kind: KindCustomAsync, custom: fn, async: true}
	if fn == nil {
		rule.buildErr = fmt.Errorf("rules: custom async check is nil")
	}
	return rule
}

// Evaluate applies a built-in rule to a value; custom rules always report
// true here and run through Run.
func (r Rule) Evaluate(value any) bool {
	if r.check == nil {
		return true
	}
	// Non-required builtins pass on empty values so optional fields do not
	// fail bounds checks before anything was entered.
	if r.kind != KindRequired && isEmpty(value) {
		return true
	}
	return r.check(value)
}

// Run executes a custom check.
func (r Rule) Run(ctx context.Context, value any, record map[string]any) error {
	if r.custom == nil {
		return nil
	}
	return r.custom(ctx, value, record)
}

func formatBound(bound float64) string {
	return strconv.FormatFloat(bound, 'f', -1, 64)
}
