package form

import (
	internalpath "github.com/goliatone/go-formstate/internal/fieldpath"
	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validate"
)

// Option customises a Form at construction time.
type Option func(*Form)

// WithDefaults seeds the initial nested default record. Reset without
// arguments restores these values.
func WithDefaults(defaults map[string]any) Option {
	return func(f *Form) {
		f.defaults = internalpath.CloneRecord(defaults)
	}
}

// WithShape attaches a declared record shape. Registrations and writes
// against undeclared paths fail, catching path typos at the call site.
func WithShape(shape *schema.Shape) Option {
	return func(f *Form) {
		f.shape = shape
	}
}

// WithTrigger fixes the validation trigger policy for the form's lifetime.
func WithTrigger(trigger validate.Trigger) Option {
	return func(f *Form) {
		f.trigger = trigger
	}
}

// WithMessages overrides the validation message catalog.
func WithMessages(catalog *messages.Catalog) Option {
	return func(f *Form) {
		if catalog != nil {
			f.catalog = catalog
		}
	}
}

// WithRemoveOnUnregister makes Unregister drop the field record and its
// value instead of only detaching the rules.
func WithRemoveOnUnregister(remove bool) Option {
	return func(f *Form) {
		f.removeOnUnregister = remove
	}
}

// SetOption adjusts a single SetValue call.
type SetOption func(*setConfig)

type setConfig struct {
	validate bool
	touch    bool
}

func applySetOptions(opts []SetOption) setConfig {
	var cfg setConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// AndValidate forces validation of the field for this write even when the
// trigger policy would not run it.
func AndValidate() SetOption {
	return func(cfg *setConfig) { cfg.validate = true }
}

// AndTouch marks the field as touched alongside the write.
func AndTouch() SetOption {
	return func(cfg *setConfig) { cfg.touch = true }
}
