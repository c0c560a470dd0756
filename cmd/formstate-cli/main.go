// Command formstate-cli fills a declaratively defined form interactively:
// it loads a YAML/JSON definition, prompts for every scalar field with the
// form's own validation wired into the prompt, and dumps the submitted
// record.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/davecgh/go-spew/spew"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema/yamldef"
)

const demoDefinition = `
trigger: change
fields:
  email:
    type: string
    rules:
      - kind: required
      - kind: pattern
        expr: "^[^@]+@[^@]+$"
        message: "enter a valid email address"
  name:
    type: string
    rules:
      - kind: required
      - kind: minLength
        bound: 2
  age:
    type: integer
    default: 18
    rules:
      - kind: min
        bound: 18
        message: "must be {{ min }} or older"
  newsletter:
    type: boolean
    default: true
`

func main() {
	definition := flag.String("definition", "", "form definition file (YAML or JSON); omit for the built-in demo")
	flag.Parse()

	payload := []byte(demoDefinition)
	if *definition != "" {
		data, err := os.ReadFile(*definition)
		if err != nil {
			log.Fatalf("read definition: %v", err)
		}
		payload = data
	}

	def, err := yamldef.Load(payload)
	if err != nil {
		log.Fatalf("parse definition: %v", err)
	}
	f, err := formstate.FromDefinition(def)
	if err != nil {
		log.Fatalf("build form: %v", err)
	}

	ctx := context.Background()
	if err := fill(ctx, f, def); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			fmt.Println("aborted")
			os.Exit(1)
		}
		log.Fatalf("prompt: %v", err)
	}

	err = f.Submit(ctx, func(ctx context.Context, record map[string]any) error {
		fmt.Println("submitted record:")
		spew.Dump(record)
		return nil
	}, func(errs formstate.Errors) {
		fmt.Println("validation failed:")
		for _, path := range errs.Paths() {
			fmt.Printf("  %s: %s\n", path, errs.Fields[path])
		}
	})
	if err != nil {
		log.Fatalf("submit: %v", err)
	}
}

// fill prompts for every scalar path in declaration order. Array entries
// (wildcard paths) are out of reach for a linear prompt flow and are skipped.
func fill(ctx context.Context, f *formstate.Form, def *yamldef.Definition) error {
	for _, path := range def.Shape.Paths() {
		if strings.Contains(path, "*") {
			continue
		}
		fieldType, _ := def.Shape.TypeOf(path)
		switch fieldType {
		case model.FieldTypeArray, model.FieldTypeObject:
			continue
		}

		field, err := f.Register(path)
		if err != nil {
			return err
		}

		if fieldType == model.FieldTypeBoolean {
			if err := askBool(ctx, f, field.Path()); err != nil {
				return err
			}
			continue
		}
		if err := askScalar(ctx, f, field.Path(), fieldType); err != nil {
			return err
		}
	}
	return nil
}

func askBool(ctx context.Context, f *formstate.Form, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current, _ := f.GetValue(path)
	def, _ := current.(bool)

	var out bool
	prompt := &survey.Confirm{Message: promptLabel(path), Default: def}
	if err := survey.AskOne(prompt, &out); err != nil {
		return err
	}
	return f.SetValue(path, out, formstate.AndTouch(), formstate.AndValidate())
}

func askScalar(ctx context.Context, f *formstate.Form, path string, fieldType model.FieldType) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prompt := &survey.Input{Message: promptLabel(path), Default: defaultText(f, path)}
	validator := func(ans interface{}) error {
		raw, _ := ans.(string)
		value, err := coerce(raw, fieldType)
		if err != nil {
			return err
		}
		if err := f.SetValue(path, value, formstate.AndTouch(), formstate.AndValidate()); err != nil {
			return err
		}
		if msg := f.FieldError(path); msg != "" {
			return errors.New(msg)
		}
		return nil
	}

	var out string
	return survey.AskOne(prompt, &out, survey.WithValidator(validator))
}

// promptLabel shows the field name, keeping the full path visible for nested
// fields so same-named leaves stay distinguishable.
func promptLabel(path string) string {
	leaf := fieldpath.Leaf(path)
	if leaf == path {
		return leaf
	}
	return leaf + " (" + path + ")"
}

func defaultText(f *formstate.Form, path string) string {
	value, ok := f.GetValue(path)
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

func coerce(raw string, fieldType model.FieldType) (any, error) {
	trimmed := strings.TrimSpace(raw)
	switch fieldType {
	case model.FieldTypeInteger:
		if trimmed == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("enter a whole number")
		}
		return n, nil
	case model.FieldTypeNumber:
		if trimmed == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("enter a number")
		}
		return n, nil
	default:
		return trimmed, nil
	}
}
