// Package formstate is the root entry point for the reactive form-state
// store. It re-exports the core types from pkg/form and its sibling packages
// and adds convenience constructors that build a form from a declarative
// definition (YAML/JSON) or from an OpenAPI component schema.
package formstate

import (
	"context"

	internalpath "github.com/goliatone/go-formstate/internal/fieldpath"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/schema"
	schemaopenapi "github.com/goliatone/go-formstate/pkg/schema/openapi"
	"github.com/goliatone/go-formstate/pkg/schema/yamldef"
	"github.com/goliatone/go-formstate/pkg/validate"
)

// Form owns the state of one form instance.
type Form = form.Form

// Field is the accessor handle returned by Register.
type Field = form.Field

// FieldArray manages an ordered, keyed collection of sub-records.
type FieldArray = form.FieldArray

// Change describes one notification batch as seen by an observer.
type Change = form.Change

// Option customises a Form at construction time.
type Option = form.Option

// SetOption adjusts a single SetValue call.
type SetOption = form.SetOption

// Shape declares the field paths a form accepts.
type Shape = schema.Shape

// Rule is one validation constraint attached to a field.
type Rule = rules.Rule

// FieldState is the read-only view of one registered field.
type FieldState = model.FieldState

// Trigger selects when field validation runs.
type Trigger = validate.Trigger

// Errors is the aggregate result of a full validation pass.
type Errors = validate.Errors

// Trigger policies, fixed for a form's lifetime.
const (
	TriggerOnChange  = validate.TriggerOnChange
	TriggerOnBlur    = validate.TriggerOnBlur
	TriggerOnTouched = validate.TriggerOnTouched
	TriggerOnSubmit  = validate.TriggerOnSubmit
)

// ErrSubmitInFlight is returned by Submit while a previous submission is
// still running.
var ErrSubmitInFlight = form.ErrSubmitInFlight

// New constructs a Form.
func New(options ...Option) (*Form, error) {
	return form.New(options...)
}

// MustNew panics when construction fails. Useful for fixtures and examples.
func MustNew(options ...Option) *Form {
	return form.MustNew(options...)
}

// NewShape returns an empty shape declaration.
func NewShape() *Shape {
	return schema.New()
}

// WithDefaults seeds the initial nested default record.
func WithDefaults(defaults map[string]any) Option { return form.WithDefaults(defaults) }

// WithShape attaches a declared record shape.
func WithShape(shape *Shape) Option { return form.WithShape(shape) }

// WithTrigger fixes the validation trigger policy.
func WithTrigger(trigger Trigger) Option { return form.WithTrigger(trigger) }

// AndValidate forces validation for a single SetValue call.
func AndValidate() SetOption { return form.AndValidate() }

// AndTouch marks the field as touched alongside a write.
func AndTouch() SetOption { return form.AndTouch() }

// FromDefinition builds a form from a parsed declarative definition,
// appending any extra options after the definition's own.
func FromDefinition(def *yamldef.Definition, options ...Option) (*Form, error) {
	combined := []Option{
		form.WithShape(def.Shape),
		form.WithTrigger(def.Trigger),
	}
	if len(def.Defaults) > 0 {
		combined = append(combined, form.WithDefaults(nestDefaults(def.Defaults)))
	}
	if def.Messages != nil {
		combined = append(combined, form.WithMessages(def.Messages))
	}
	combined = append(combined, options...)
	return form.New(combined...)
}

// FromYAML parses a YAML or JSON form definition and builds a form from it.
func FromYAML(data []byte, options ...Option) (*Form, error) {
	def, err := yamldef.Load(data)
	if err != nil {
		return nil, err
	}
	return FromDefinition(def, options...)
}

// FromOpenAPI derives a shape from the named component schema of an OpenAPI
// document and builds a form carrying it, with the schema's declared defaults
// seeded as the initial record.
func FromOpenAPI(ctx context.Context, document []byte, component string, options ...Option) (*Form, error) {
	derived, err := schemaopenapi.FromDocument(ctx, document, component)
	if err != nil {
		return nil, err
	}
	combined := []Option{form.WithShape(derived.Shape)}
	if len(derived.Defaults) > 0 {
		combined = append(combined, form.WithDefaults(nestDefaults(derived.Defaults)))
	}
	combined = append(combined, options...)
	return form.New(combined...)
}

// nestDefaults expands dotted-path defaults into a nested record.
func nestDefaults(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for path, value := range flat {
		// Paths come pre-normalised from the loaders; a failure here means a
		// wildcard slipped in, which has no concrete location to write to.
		_ = internalpath.Set(out, path, value)
	}
	return out
}
