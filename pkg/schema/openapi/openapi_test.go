package openapi

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
)

const document = `{
  "openapi": "3.0.0",
  "info": { "title": "Signup", "version": "1.0.0" },
  "paths": {},
  "components": {
    "schemas": {
      "Signup": {
        "type": "object",
        "required": ["email", "age"],
        "properties": {
          "email": {
            "type": "string",
            "minLength": 3,
            "maxLength": 120,
            "pattern": "^[^@]+@[^@]+$"
          },
          "age": {
            "type": "integer",
            "minimum": 18,
            "maximum": 130
          },
          "newsletter": {
            "type": "boolean",
            "default": true
          },
          "profile": {
            "type": "object",
            "properties": {
              "bio": { "type": "string", "maxLength": 500 }
            }
          },
          "tags": {
            "type": "array",
            "items": { "type": "string", "minLength": 1 }
          },
          "addresses": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["city"],
              "properties": {
                "city": { "type": "string" },
                "zip": { "type": "string", "pattern": "^[0-9]{5}$" }
              }
            }
          }
        }
      },
      "NotAnObject": { "type": "string" }
    }
  }
}`

func TestFromDocumentDeclaresPaths(t *testing.T) {
	derived, err := FromDocument(context.Background(), []byte(document), "Signup")
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}

	wantPaths := []string{
		"addresses",
		"addresses.*.city",
		"addresses.*.zip",
		"age",
		"email",
		"newsletter",
		"profile",
		"profile.bio",
		"tags",
		"tags.*",
	}
	if diff := cmp.Diff(wantPaths, derived.Shape.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}

	cases := map[string]model.FieldType{
		"email":            model.FieldTypeString,
		"age":              model.FieldTypeInteger,
		"newsletter":       model.FieldTypeBoolean,
		"tags":             model.FieldTypeArray,
		"addresses.0.city": model.FieldTypeString,
		"addresses.12.zip": model.FieldTypeString,
		"profile.bio":      model.FieldTypeString,
	}
	for path, want := range cases {
		got, ok := derived.Shape.TypeOf(path)
		if !ok {
			t.Errorf("TypeOf(%q) not declared", path)
			continue
		}
		if got != want {
			t.Errorf("TypeOf(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestFromDocumentAttachesRules(t *testing.T) {
	derived, err := FromDocument(context.Background(), []byte(document), "Signup")
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}

	email := derived.Shape.RulesFor("email")
	if len(email) != 4 {
		t.Fatalf("RulesFor(email) = %d rules, want 4", len(email))
	}
	if email[0].Kind() != "required" {
		t.Errorf("first email rule = %q, want required", email[0].Kind())
	}
	for _, rule := range email {
		if !rule.Evaluate("dev@example.com") {
			t.Errorf("rule %q rejected a valid email", rule.Kind())
		}
	}
	if email[3].Evaluate("not-an-email") {
		t.Error("pattern rule accepted an invalid email")
	}

	age := derived.Shape.RulesFor("age")
	if len(age) != 3 {
		t.Fatalf("RulesFor(age) = %d rules, want 3", len(age))
	}
	if age[1].Evaluate(12) {
		t.Error("minimum rule accepted an underage value")
	}
	if !age[1].Evaluate(18) {
		t.Error("minimum rule rejected the lower bound")
	}

	city := derived.Shape.RulesFor("addresses.3.city")
	if len(city) != 1 || city[0].Kind() != "required" {
		t.Errorf("RulesFor(addresses.3.city) = %v, want single required rule", city)
	}
}

func TestFromDocumentCollectsDefaults(t *testing.T) {
	derived, err := FromDocument(context.Background(), []byte(document), "Signup")
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	want := map[string]any{"newsletter": true}
	if diff := cmp.Diff(want, derived.Defaults); diff != "" {
		t.Errorf("Defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestFromDocumentRejections(t *testing.T) {
	ctx := context.Background()
	if _, err := FromDocument(ctx, nil, "Signup"); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := FromDocument(ctx, []byte(document), "Missing"); err == nil {
		t.Error("expected error for unknown component")
	}
	if _, err := FromDocument(ctx, []byte(document), "NotAnObject"); err == nil {
		t.Error("expected error for non-object component")
	}
	if _, err := FromDocument(ctx, []byte(document), ""); err == nil {
		t.Error("expected error for empty component name")
	}
}
