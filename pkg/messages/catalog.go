// Package messages renders validation failure messages for rule kinds.
// Messages are pongo2 templates so thresholds and the rejected value can be
// interpolated ("must be at least {{ min }}"), and a sanitising variant
// exists for surfaces that embed messages in HTML.
package messages

import (
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formstate/pkg/rules"
)

// GenericAsyncFailure is used when an asynchronous check itself errors, so
// backend hiccups do not leak internals into field errors.
const GenericAsyncFailure = "could not be validated"

var defaultTemplates = map[rules.Kind]string{
	rules.KindRequired:  "this field is required",
	rules.KindMin:       "must be at least {{ min }}",
	rules.KindMax:       "must be at most {{ max }}",
	rules.KindMinLength: "must be at least {{ minLength }} characters",
	rules.KindMaxLength: "must be at most {{ maxLength }} characters",
	rules.KindPattern:   "does not match the expected format",
	rules.KindCustom:    "invalid value",
}

// Catalog maps rule kinds to message templates. The zero value is unusable;
// construct with Default or New.
type Catalog struct {
	mu        sync.RWMutex
	templates map[rules.Kind]*pongo2.Template
}

// Default returns a catalog seeded with the built-in English messages.
func Default() *Catalog {
	c := &Catalog{templates: make(map[rules.Kind]*pongo2.Template, len(defaultTemplates))}
	for kind, source := range defaultTemplates {
		// Built-in templates are known-good; a failure here is a programming
		// defect in this package.
		tpl, err := pongo2.FromString(source)
		if err != nil {
			panic(fmt.Sprintf("messages: built-in template for %q: %v", kind, err))
		}
		c.templates[kind] = tpl
	}
	return c
}

// New returns a catalog with the defaults plus the provided overrides.
func New(overrides map[rules.Kind]string) (*Catalog, error) {
	c := Default()
	for kind, source := range overrides {
		if err := c.Set(kind, source); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Set registers or replaces the template for a rule kind.
func (c *Catalog) Set(kind rules.Kind, source string) error {
	tpl, err := pongo2.FromString(source)
	if err != nil {
		return fmt.Errorf("messages: compile template for %q: %w", kind, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.templates == nil {
		c.templates = make(map[rules.Kind]*pongo2.Template)
	}
	c.templates[kind] = tpl
	return nil
}

// Render produces the failure message for a rule applied to a value. The
// rule's override message wins over the catalog template; both may
// interpolate rule params and the rejected value.
func (c *Catalog) Render(rule rules.Rule, value any) string {
	if override := rule.Message(); override != "" {
		if rendered, err := renderSource(override, rule, value); err == nil {
			return rendered
		}
		return override
	}

	c.mu.RLock()
	tpl := c.templates[rule.Kind()]
	c.mu.RUnlock()
	if tpl == nil {
		return string(rule.Kind()) + " check failed"
	}

	rendered, err := tpl.Execute(contextFor(rule, value))
	if err != nil {
		return string(rule.Kind()) + " check failed"
	}
	return rendered
}

// RenderHTML renders the message and strips any markup that arrived through
// interpolated values, so messages are safe to embed in HTML output.
func (c *Catalog) RenderHTML(rule rules.Rule, value any) string {
	return sanitize(c.Render(rule, value))
}

func renderSource(source string, rule rules.Rule, value any) (string, error) {
	tpl, err := pongo2.FromString(source)
	if err != nil {
		return "", err
	}
	return tpl.Execute(contextFor(rule, value))
}

func contextFor(rule rules.Rule, value any) pongo2.Context {
	ctx := pongo2.Context{"value": value}
	for key, param := range rule.Params() {
		ctx[key] = param
	}
	return ctx
}
