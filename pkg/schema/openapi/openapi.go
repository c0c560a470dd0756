// Package openapi derives form shapes from OpenAPI 3 component schemas.
// Object properties become dotted paths, array items become wildcard paths,
// and validation keywords (required, minimum, maxLength, pattern) become
// default rules the form attaches on registration.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// Derived is the outcome of converting one component schema: the shape to
// hand a form, plus the defaults the schema declares.
type Derived struct {
	Shape    *schema.Shape
	Defaults map[string]any
}

// FromDocument parses an OpenAPI document and derives a shape from the named
// component schema.
func FromDocument(ctx context.Context, data []byte, component string) (*Derived, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	if component == "" {
		return nil, errors.New("openapi: component name is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if spec.Components == nil {
		return nil, fmt.Errorf("openapi: component %q not found", component)
	}
	ref, ok := spec.Components.Schemas[component]
	if !ok {
		return nil, fmt.Errorf("openapi: component %q not found", component)
	}
	return FromSchema(ref, component)
}

// FromSchema derives a shape from an already-resolved schema reference.
func FromSchema(ref *openapi3.SchemaRef, name string) (*Derived, error) {
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("openapi: schema %q is unresolved", name)
	}
	if firstSchemaType(ref.Value.Type) != "object" {
		return nil, fmt.Errorf("openapi: schema %q is not an object", name)
	}

	derived := &Derived{
		Shape:    schema.New(),
		Defaults: make(map[string]any),
	}
	collectObject(derived, "", ref.Value)
	if err := derived.Shape.Validate(); err != nil {
		return nil, err
	}
	return derived, nil
}

func collectObject(derived *Derived, prefix string, src *openapi3.Schema) {
	required := make(map[string]bool, len(src.Required))
	for _, name := range src.Required {
		required[name] = true
	}

	for _, name := range sortedPropertyNames(src.Properties) {
		ref := src.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		collectProperty(derived, path, ref.Value, required[name])
	}
}

func collectProperty(derived *Derived, path string, src *openapi3.Schema, required bool) {
	switch firstSchemaType(src.Type) {
	case "object":
		derived.Shape.Declare(path, model.FieldTypeObject)
		collectObject(derived, path, src)
	case "array":
		derived.Shape.DeclareWithRules(path, model.FieldTypeArray, ruleSet(src, required)...)
		if src.Items != nil && src.Items.Value != nil {
			item := src.Items.Value
			if firstSchemaType(item.Type) == "object" {
				collectObject(derived, path+".*", item)
			} else {
				collectProperty(derived, path+".*", item, false)
			}
		}
	default:
		derived.Shape.DeclareWithRules(path, fieldType(src), ruleSet(src, required)...)
		if src.Default != nil {
			derived.Defaults[path] = src.Default
		}
	}
}

// ruleSet translates the schema's validation keywords into default rules,
// required first so it stays ahead of the bound checks.
func ruleSet(src *openapi3.Schema, required bool) []rules.Rule {
	var set []rules.Rule
	if required {
		set = append(set, rules.Required())
	}
	if src.Min != nil {
		set = append(set, rules.Min(*src.Min))
	}
	if src.Max != nil {
		set = append(set, rules.Max(*src.Max))
	}
	if src.MinLength != 0 {
		set = append(set, rules.MinLength(int(src.MinLength)))
	}
	if src.MaxLength != nil {
		set = append(set, rules.MaxLength(int(*src.MaxLength)))
	}
	if src.Pattern != "" {
		set = append(set, rules.Pattern(src.Pattern))
	}
	return set
}

func fieldType(src *openapi3.Schema) model.FieldType {
	switch firstSchemaType(src.Type) {
	case "integer":
		return model.FieldTypeInteger
	case "number":
		return model.FieldTypeNumber
	case "boolean":
		return model.FieldTypeBoolean
	case "array":
		return model.FieldTypeArray
	case "object":
		return model.FieldTypeObject
	default:
		return model.FieldTypeString
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func sortedPropertyNames(properties openapi3.Schemas) []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
