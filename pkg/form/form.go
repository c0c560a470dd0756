// Package form implements a reactive form-state store: registered field
// records with dirty/touched/error tracking over a nested value record,
// path-scoped change subscriptions, rule validation with configurable
// triggers, keyed field arrays, and a serialized submission gate.
//
// A Form is scoped to one form lifetime and is passed by reference; it is
// never process-global. All state is guarded by a single mutex, so a Form is
// safe for concurrent use, while asynchronous validators and submission
// callbacks run outside the lock and commit through sequence checks (last
// submitted value wins).
package form

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	internalpath "github.com/goliatone/go-formstate/internal/fieldpath"
	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/source"
	"github.com/goliatone/go-formstate/pkg/validate"
)

// ErrSubmitInFlight is returned by Submit while a previous submission is
// still running. Submissions are serialized; concurrent attempts are
// rejected rather than queued.
var ErrSubmitInFlight = errors.New("form: submission already in flight")

// Form owns the state of one form instance.
type Form struct {
	mu sync.Mutex

	shape              *schema.Shape
	trigger            validate.Trigger
	catalog            *messages.Catalog
	removeOnUnregister bool

	defaults map[string]any
	values   map[string]any

	fields map[string]*fieldState

	watchers   map[uint64]*watcher
	watcherSeq uint64
	queue      []*batch
	delivering bool

	keySeq    uint64
	arrayKeys map[string][]string

	formErrors []string
	submitting bool
}

// fieldState is the mutable record behind one registered path. seq increments
// whenever the value is superseded (new value, reset, structural array
// change); an async validation result only commits when its seq still
// matches.
type fieldState struct {
	path       string
	rules      []rules.Rule
	dirty      bool
	touched    bool
	validating bool
	errMsg     string
	seq        uint64
}

// New constructs a Form. Without options it validates on submit only, uses
// the default message catalog, and accepts any field path.
func New(options ...Option) (*Form, error) {
	f := &Form{
		trigger:   validate.TriggerOnSubmit,
		catalog:   messages.Default(),
		defaults:  make(map[string]any),
		fields:    make(map[string]*fieldState),
		watchers:  make(map[uint64]*watcher),
		arrayKeys: make(map[string][]string),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}

	if !f.trigger.Valid() {
		return nil, fmt.Errorf("form: unknown validation trigger %q", f.trigger)
	}
	if f.shape != nil {
		if err := f.shape.Validate(); err != nil {
			return nil, fmt.Errorf("form: shape: %w", err)
		}
	}
	f.values = internalpath.CloneRecord(f.defaults)
	return f, nil
}

// MustNew panics when construction fails. Useful for fixtures and examples.
func MustNew(options ...Option) *Form {
	f, err := New(options...)
	if err != nil {
		panic(err)
	}
	return f
}

// Register creates (or re-creates) the field record for a path and attaches
// its validation rules. When the form carries a shape, undeclared paths are
// rejected; a rule carrying a construction error (bad pattern, negative
// bound) is rejected as well. Re-registering an existing path replaces its
// rules and keeps the accumulated state.
func (f *Form) Register(path string, ruleSet ...rules.Rule) (*Field, error) {
	normalized := internalpath.Normalize(path)
	if normalized == "" {
		return nil, errors.New("form: register: empty path")
	}

	f.mu.Lock()
	if f.shape != nil && !f.shape.Allows(normalized) {
		f.mu.Unlock()
		return nil, fmt.Errorf("form: register: path %q not declared in shape", normalized)
	}

	combined := ruleSet
	if f.shape != nil {
		if defaults := f.shape.RulesFor(normalized); len(defaults) > 0 {
			combined = append(defaults, ruleSet...)
		}
	}
	for _, rule := range combined {
		if err := rule.Err(); err != nil {
			f.mu.Unlock()
			return nil, fmt.Errorf("form: register %q: %w", normalized, err)
		}
	}

	fs, exists := f.fields[normalized]
	if !exists {
		fs = &fieldState{path: normalized}
		f.fields[normalized] = fs
	}
	fs.rules = combined

	b := newBatch()
	b.add(normalized)
	f.mu.Unlock()
	f.publish(b)

	return &Field{form: f, path: normalized}, nil
}

// Unregister removes a field's rules and, when the form was configured with
// WithRemoveOnUnregister, drops its record and value entirely.
func (f *Form) Unregister(path string) {
	normalized := internalpath.Normalize(path)

	f.mu.Lock()
	fs, ok := f.fields[normalized]
	if !ok {
		f.mu.Unlock()
		return
	}
	b := newBatch()
	if f.removeOnUnregister {
		fs.seq++ // discard any in-flight async result
		delete(f.fields, normalized)
		internalpath.Delete(f.values, normalized)
		b.add(normalized)
	} else {
		fs.rules = nil
	}
	f.mu.Unlock()
	f.publish(b)
}

// SetValue writes a value at a path. For registered fields the record is
// marked dirty when the value differs from its default, any in-flight async
// validation for the previous value is superseded, and validation runs when
// the trigger policy or an option asks for it. Last write wins.
func (f *Form) SetValue(path string, value any, opts ...SetOption) error {
	normalized := internalpath.Normalize(path)
	if normalized == "" {
		return errors.New("form: set value: empty path")
	}
	cfg := applySetOptions(opts)

	f.mu.Lock()
	fs := f.fields[normalized]
	if fs == nil && f.shape != nil && !f.shape.Allows(normalized) {
		f.mu.Unlock()
		return fmt.Errorf("form: set value: path %q not declared in shape", normalized)
	}
	if err := internalpath.Set(f.values, normalized, value); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("form: set value %q: %w", normalized, err)
	}

	b := newBatch()
	b.add(normalized)

	if fs != nil {
		fs.seq++
		fs.dirty = !valuesEqual(value, f.defaultAt(normalized))
		if cfg.touch {
			fs.touched = true
		}
		if cfg.validate || f.trigger.Fires(validate.EventChange, fs.touched) {
			f.validateLocked(context.Background(), fs, b)
		}
	}
	f.revalidateDependentsLocked(normalized, b)
	f.mu.Unlock()
	f.publish(b)
	return nil
}

// GetValue resolves the current value at a path.
func (f *Form) GetValue(path string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return internalpath.Get(f.values, path)
}

// Snapshot returns a deep copy of the full nested value record. The snapshot
// is derived from the store; mutating it does not affect the form.
func (f *Form) Snapshot() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return internalpath.CloneRecord(f.values)
}

// Blur marks a field as touched and runs validation when the trigger policy
// validates on blur.
func (f *Form) Blur(path string) {
	normalized := internalpath.Normalize(path)

	f.mu.Lock()
	fs := f.fields[normalized]
	if fs == nil {
		f.mu.Unlock()
		return
	}
	b := newBatch()
	if !fs.touched {
		fs.touched = true
		b.add(normalized)
	}
	if f.trigger.Fires(validate.EventBlur, fs.touched) {
		f.validateLocked(context.Background(), fs, b)
	}
	f.mu.Unlock()
	f.publish(b)
}

// Reset restores the record to its defaults, or to newDefaults when given,
// clears every dirty/touched/error/validating flag and all form-level
// errors, and notifies every subscriber in one batch regardless of which
// paths actually changed. In-flight async validations are discarded.
func (f *Form) Reset(newDefaults ...map[string]any) {
	f.mu.Lock()
	if len(newDefaults) > 0 && newDefaults[0] != nil {
		f.defaults = internalpath.CloneRecord(newDefaults[0])
	}
	f.values = internalpath.CloneRecord(f.defaults)

	b := newBatch()
	b.form = true
	for path, fs := range f.fields {
		fs.dirty = false
		fs.touched = false
		fs.validating = false
		fs.errMsg = ""
		fs.seq++
		b.add(path)
	}
	f.formErrors = nil
	// Stable keys are per logical item; a reset replaces every item, so key
	// slices regenerate lazily with fresh keys.
	f.arrayKeys = make(map[string][]string)
	f.mu.Unlock()
	f.publish(b)
}

// ResetFrom fetches a record from an external source and resets the form
// with it as the new defaults.
func (f *Form) ResetFrom(ctx context.Context, src source.RecordSource, id string) error {
	if src == nil {
		return errors.New("form: reset from: source is nil")
	}
	record, err := src.Fetch(ctx, id)
	if err != nil {
		return fmt.Errorf("form: reset from %q: %w", id, err)
	}
	f.Reset(record)
	return nil
}

// State returns the point-in-time view of a registered field.
func (f *Form) State(path string) (model.FieldState, bool) {
	normalized := internalpath.Normalize(path)

	f.mu.Lock()
	defer f.mu.Unlock()
	fs, ok := f.fields[normalized]
	if !ok {
		return model.FieldState{}, false
	}
	return f.stateLocked(fs), true
}

// FieldError returns the current error message for a path, "" when the field
// is valid or unknown.
func (f *Form) FieldError(path string) string {
	state, _ := f.State(path)
	return state.Error
}

// DirtyPaths returns the sorted paths of every dirty field.
func (f *Form) DirtyPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for path, fs := range f.fields {
		if fs.dirty {
			out = append(out, path)
		}
	}
	sortPaths(out)
	return out
}

// Dirty reports whether any registered field is dirty.
func (f *Form) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fs := range f.fields {
		if fs.dirty {
			return true
		}
	}
	return false
}

// Touched reports whether any registered field has been touched.
func (f *Form) Touched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fs := range f.fields {
		if fs.touched {
			return true
		}
	}
	return false
}

// IsValid reports whether no field and no form-level error is present.
func (f *Form) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.formErrors) > 0 {
		return false
	}
	for _, fs := range f.fields {
		if fs.errMsg != "" {
			return false
		}
	}
	return true
}

func (f *Form) stateLocked(fs *fieldState) model.FieldState {
	value, _ := internalpath.Get(f.values, fs.path)
	return model.FieldState{
		Path:       fs.path,
		Value:      internalpath.Clone(value),
		Default:    internalpath.Clone(f.defaultAt(fs.path)),
		Dirty:      fs.dirty,
		Touched:    fs.touched,
		Validating: fs.validating,
		Error:      fs.errMsg,
	}
}

func (f *Form) defaultAt(path string) any {
	value, _ := internalpath.Get(f.defaults, path)
	return value
}

// registeredPathsLocked returns the sorted registered paths. Callers hold f.mu.
func (f *Form) registeredPathsLocked() []string {
	out := make([]string, 0, len(f.fields))
	for path := range f.fields {
		out = append(out, path)
	}
	sortPaths(out)
	return out
}

// valuesEqual is the dirty-tracking comparison: structural equality over the
// nested record types.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
