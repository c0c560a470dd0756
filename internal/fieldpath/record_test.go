package fieldpath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetGetRoundTrip(t *testing.T) {
	root := map[string]any{}

	if err := Set(root, "address.street", "main st"); err != nil {
		t.Fatalf("set nested map: %v", err)
	}
	if err := Set(root, "items.1.name", "second"); err != nil {
		t.Fatalf("set nested slice: %v", err)
	}
	if err := Set(root, "items[0].name", "first"); err != nil {
		t.Fatalf("set bracket notation: %v", err)
	}

	want := map[string]any{
		"address": map[string]any{"street": "main st"},
		"items": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second"},
		},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	got, ok := Get(root, "items.1.name")
	if !ok || got != "second" {
		t.Fatalf("Get(items.1.name) = %v, %v", got, ok)
	}
	if _, ok := Get(root, "items.5.name"); ok {
		t.Fatal("out-of-range index should not resolve")
	}
	if _, ok := Get(root, "address.zip"); ok {
		t.Fatal("missing key should not resolve")
	}
}

func TestSetGrowsSlices(t *testing.T) {
	root := map[string]any{}
	if err := Set(root, "tags.3", "d"); err != nil {
		t.Fatalf("set: %v", err)
	}
	tags, ok := Get(root, "tags")
	if !ok {
		t.Fatal("tags missing")
	}
	slice, ok := tags.([]any)
	if !ok || len(slice) != 4 {
		t.Fatalf("tags = %#v", tags)
	}
	if slice[3] != "d" {
		t.Fatalf("slice[3] = %v", slice[3])
	}
}

func TestSetContainerMismatch(t *testing.T) {
	root := map[string]any{"name": "plain"}
	if err := Set(root, "name.first", "x"); err == nil {
		t.Fatal("expected error writing below a scalar")
	}
}

func TestDelete(t *testing.T) {
	root := map[string]any{
		"name": "a",
		"items": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second"},
			map[string]any{"name": "third"},
		},
	}

	Delete(root, "name")
	if _, ok := root["name"]; ok {
		t.Fatal("top-level key not removed")
	}

	Delete(root, "items.1")
	items, _ := Get(root, "items")
	want := []any{
		map[string]any{"name": "first"},
		map[string]any{"name": "third"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("slice entry removal (-want +got):\n%s", diff)
	}

	// Missing paths are a no-op.
	Delete(root, "missing.path")
}

func TestCloneIsDeep(t *testing.T) {
	src := map[string]any{
		"nested": map[string]any{"value": 1},
		"list":   []any{"a"},
	}
	clone := CloneRecord(src)
	clone["nested"].(map[string]any)["value"] = 2
	clone["list"].([]any)[0] = "b"

	if src["nested"].(map[string]any)["value"] != 1 {
		t.Fatal("clone shares nested map with source")
	}
	if src["list"].([]any)[0] != "a" {
		t.Fatal("clone shares slice with source")
	}
}

func TestLeaves(t *testing.T) {
	root := map[string]any{
		"name": "a",
		"address": map[string]any{
			"street": "main",
		},
		"tags": []any{"x", "y"},
	}

	got := map[string]any{}
	Leaves(root, func(path string, value any) {
		got[path] = value
	})

	want := map[string]any{
		"name":           "a",
		"address.street": "main",
		"tags.0":         "x",
		"tags.1":         "y",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("leaves mismatch (-want +got):\n%s", diff)
	}
}
