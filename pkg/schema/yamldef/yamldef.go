// Package yamldef loads declarative form definitions from YAML or JSON
// documents: field paths with their kinds, default values, validation rules,
// the trigger policy, and message overrides.
package yamldef

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	internalpath "github.com/goliatone/go-formstate/internal/fieldpath"
	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validate"
)

// Definition is a parsed form definition ready to construct a form from.
type Definition struct {
	Shape    *schema.Shape
	Defaults map[string]any
	Trigger  validate.Trigger
	Messages *messages.Catalog
}

type documentFile struct {
	Trigger  string               `json:"trigger" yaml:"trigger"`
	Fields   map[string]fieldFile `json:"fields" yaml:"fields"`
	Messages map[string]string    `json:"messages" yaml:"messages"`
}

type fieldFile struct {
	Type    string     `json:"type" yaml:"type"`
	Default any        `json:"default" yaml:"default"`
	Rules   []ruleFile `json:"rules" yaml:"rules"`
}

type ruleFile struct {
	Kind      string   `json:"kind" yaml:"kind"`
	Bound     *float64 `json:"bound" yaml:"bound"`
	Expr      string   `json:"expr" yaml:"expr"`
	Message   string   `json:"message" yaml:"message"`
	DependsOn []string `json:"dependsOn" yaml:"dependsOn"`
}

// Load parses a definition document. The payload may be JSON or YAML.
func Load(data []byte) (*Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("yamldef: document is empty")
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("yamldef: parse document: invalid JSON or YAML")
		}
	}
	return build(doc)
}

// LoadFS reads and parses a definition file from a filesystem.
func LoadFS(fsys fs.FS, name string) (*Definition, error) {
	if fsys == nil {
		return nil, fmt.Errorf("yamldef: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("yamldef: read %s: %w", name, err)
	}
	def, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("yamldef: file %s: %w", name, err)
	}
	return def, nil
}

func build(doc documentFile) (*Definition, error) {
	def := &Definition{
		Shape:    schema.New(),
		Defaults: make(map[string]any),
		Trigger:  validate.TriggerOnChange,
	}

	if doc.Trigger != "" {
		trigger := validate.Trigger(doc.Trigger)
		if !trigger.Valid() {
			return nil, fmt.Errorf("yamldef: unknown trigger %q", doc.Trigger)
		}
		def.Trigger = trigger
	}

	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("yamldef: document declares no fields")
	}

	seen := make(map[string]string, len(doc.Fields))
	for key, field := range doc.Fields {
		path := internalpath.Normalize(key)
		if path == "" {
			return nil, fmt.Errorf("yamldef: field key %q normalises to an empty path", key)
		}
		if prior, exists := seen[path]; exists {
			return nil, fmt.Errorf("yamldef: field keys %q and %q declare the same path", prior, key)
		}
		seen[path] = key

		fieldType, err := parseFieldType(field.Type, key)
		if err != nil {
			return nil, err
		}

		ruleSet := make([]rules.Rule, 0, len(field.Rules))
		for _, raw := range field.Rules {
			rule, err := buildRule(raw, key)
			if err != nil {
				return nil, err
			}
			ruleSet = append(ruleSet, rule)
		}

		def.Shape.DeclareWithRules(path, fieldType, ruleSet...)
		if field.Default != nil {
			def.Defaults[path] = field.Default
		}
	}

	if err := def.Shape.Validate(); err != nil {
		return nil, fmt.Errorf("yamldef: %w", err)
	}

	if len(doc.Messages) > 0 {
		overrides := make(map[rules.Kind]string, len(doc.Messages))
		for kind, source := range doc.Messages {
			overrides[rules.Kind(kind)] = source
		}
		catalog, err := messages.New(overrides)
		if err != nil {
			return nil, fmt.Errorf("yamldef: messages: %w", err)
		}
		def.Messages = catalog
	}

	return def, nil
}

func parseFieldType(raw, key string) (model.FieldType, error) {
	switch model.FieldType(raw) {
	case model.FieldTypeString, "":
		return model.FieldTypeString, nil
	case model.FieldTypeInteger:
		return model.FieldTypeInteger, nil
	case model.FieldTypeNumber:
		return model.FieldTypeNumber, nil
	case model.FieldTypeBoolean:
		return model.FieldTypeBoolean, nil
	case model.FieldTypeArray:
		return model.FieldTypeArray, nil
	case model.FieldTypeObject:
		return model.FieldTypeObject, nil
	default:
		return "", fmt.Errorf("yamldef: field %q has unknown type %q", key, raw)
	}
}

func buildRule(raw ruleFile, key string) (rules.Rule, error) {
	var rule rules.Rule
	switch rules.Kind(raw.Kind) {
	case rules.KindRequired:
		rule = rules.Required()
	case rules.KindMin:
		if raw.Bound == nil {
			return rules.Rule{}, fmt.Errorf("yamldef: field %q: min rule needs a bound", key)
		}
		rule = rules.Min(*raw.Bound)
	case rules.KindMax:
		if raw.Bound == nil {
			return rules.Rule{}, fmt.Errorf("yamldef: field %q: max rule needs a bound", key)
		}
		rule = rules.Max(*raw.Bound)
	case rules.KindMinLength:
		if raw.Bound == nil {
			return rules.Rule{}, fmt.Errorf("yamldef: field %q: minLength rule needs a bound", key)
		}
		rule = rules.MinLength(int(*raw.Bound))
	case rules.KindMaxLength:
		if raw.Bound == nil {
			return rules.Rule{}, fmt.Errorf("yamldef: field %q: maxLength rule needs a bound", key)
		}
		rule = rules.MaxLength(int(*raw.Bound))
	case rules.KindPattern:
		if raw.Expr == "" {
			return rules.Rule{}, fmt.Errorf("yamldef: field %q: pattern rule needs an expression", key)
		}
		rule = rules.Pattern(raw.Expr)
	default:
		return rules.Rule{}, fmt.Errorf("yamldef: field %q has unknown rule kind %q", key, raw.Kind)
	}

	if rule.Err() != nil {
		return rules.Rule{}, fmt.Errorf("yamldef: field %q: %w", key, rule.Err())
	}
	if raw.Message != "" {
		rule = rule.WithMessage(raw.Message)
	}
	if len(raw.DependsOn) > 0 {
		rule = rule.DependsOn(raw.DependsOn...)
	}
	return rule, nil
}
