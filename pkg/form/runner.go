package form

import (
	"context"
	"errors"
	"fmt"

	internalpath "github.com/goliatone/go-formstate/internal/fieldpath"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/validate"
)

// ValidateField runs a single field's rules against its current value,
// awaiting asynchronous checks, and returns the resulting error message (""
// when the field is valid). Unknown paths are a caller defect.
func (f *Form) ValidateField(ctx context.Context, path string) (string, error) {
	normalized := internalpath.Normalize(path)

	f.mu.Lock()
	fs, ok := f.fields[normalized]
	if !ok {
		f.mu.Unlock()
		return "", fmt.Errorf("form: validate: path %q is not registered", normalized)
	}

	value, _ := internalpath.Get(f.values, normalized)
	record := internalpath.CloneRecord(f.values)
	ruleSet := fs.rules
	fs.seq++ // supersede any in-flight async run for this field
	seq := fs.seq
	f.mu.Unlock()

	outcome := validate.Field(ctx, value, record, ruleSet, f.catalog)
	msg := outcome.Message
	if !outcome.Failed() && len(outcome.Pending) > 0 {
		msg = validate.Async(ctx, value, record, outcome.Pending)
	}

	b := newBatch()
	f.mu.Lock()
	if fs.seq == seq {
		f.commitResultLocked(fs, msg, b)
	}
	f.mu.Unlock()
	f.publish(b)
	return msg, nil
}

// ValidateAll runs every registered field's rules, awaiting asynchronous
// checks, and returns the aggregate result used by Submit.
func (f *Form) ValidateAll(ctx context.Context) validate.Errors {
	type entry struct {
		fs      *fieldState
		path    string
		value   any
		ruleSet []rules.Rule
		seq     uint64
	}

	f.mu.Lock()
	record := internalpath.CloneRecord(f.values)
	entries := make([]entry, 0, len(f.fields))
	for _, path := range f.registeredPathsLocked() {
		fs := f.fields[path]
		value, _ := internalpath.Get(f.values, path)
		fs.seq++ // a full pass supersedes per-field async runs
		entries = append(entries, entry{fs: fs, path: path, value: value, ruleSet: fs.rules, seq: fs.seq})
	}
	f.mu.Unlock()

	result := validate.Errors{}
	b := newBatch()
	for _, e := range entries {
		outcome := validate.Field(ctx, e.value, record, e.ruleSet, f.catalog)
		msg := outcome.Message
		if !outcome.Failed() && len(outcome.Pending) > 0 {
			msg = validate.Async(ctx, e.value, record, outcome.Pending)
		}
		if msg != "" {
			if result.Fields == nil {
				result.Fields = make(map[string]string)
			}
			result.Fields[e.path] = msg
		}

		f.mu.Lock()
		if e.fs.seq == e.seq {
			f.commitResultLocked(e.fs, msg, b)
		}
		f.mu.Unlock()
	}
	f.publish(b)
	return result
}

// validateLocked runs the synchronous portion of a field's validation and
// schedules pending async checks on a fresh goroutine. Callers hold f.mu.
func (f *Form) validateLocked(ctx context.Context, fs *fieldState, b *batch) {
	value, _ := internalpath.Get(f.values, fs.path)
	record := internalpath.CloneRecord(f.values)

	outcome := validate.Field(ctx, value, record, fs.rules, f.catalog)
	if outcome.Failed() {
		f.commitResultLocked(fs, outcome.Message, b)
		return
	}
	if len(outcome.Pending) == 0 {
		f.commitResultLocked(fs, "", b)
		return
	}

	// Async checks pending: keep the previous error on display, flag the
	// field as validating, and commit only if the value is not superseded
	// before the checks resolve.
	if !fs.validating {
		fs.validating = true
		b.add(fs.path)
	}
	seq := fs.seq
	go func() {
		msg := validate.Async(ctx, value, record, outcome.Pending)

		done := newBatch()
		f.mu.Lock()
		if fs.seq == seq {
			fs.validating = false
			done.add(fs.path)
			f.commitResultLocked(fs, msg, done)
		}
		f.mu.Unlock()
		f.publish(done)
	}()
}

// commitResultLocked stores a validation result, recording the path in the
// batch when the error state actually changed. Callers hold f.mu.
func (f *Form) commitResultLocked(fs *fieldState, msg string, b *batch) {
	if fs.validating {
		fs.validating = false
		b.add(fs.path)
	}
	if fs.errMsg != msg {
		fs.errMsg = msg
		b.add(fs.path)
	}
}

// revalidateDependentsLocked re-runs validation for every field that
// declared the changed path as a dependency. Cross-field dependencies fire
// under every trigger policy. Callers hold f.mu.
func (f *Form) revalidateDependentsLocked(changed string, b *batch) {
	for _, path := range f.registeredPathsLocked() {
		if path == changed {
			continue
		}
		fs := f.fields[path]
		if !dependsOn(fs.rules, changed) {
			continue
		}
		f.validateLocked(context.Background(), fs, b)
	}
}

func dependsOn(ruleSet []rules.Rule, path string) bool {
	for _, rule := range ruleSet {
		for _, dep := range rule.Deps() {
			if dep == path {
				return true
			}
		}
	}
	return false
}

// SetError attaches an error programmatically. An empty path attaches a
// form-level error not owned by any field; otherwise the path must be
// registered.
func (f *Form) SetError(path, message string) error {
	normalized := internalpath.Normalize(path)

	b := newBatch()
	f.mu.Lock()
	if normalized == "" {
		f.formErrors = appendUnique(f.formErrors, message)
		b.form = true
		f.mu.Unlock()
		f.publish(b)
		return nil
	}

	fs, ok := f.fields[normalized]
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("form: set error: path %q is not registered", normalized)
	}
	if fs.errMsg != message {
		fs.errMsg = message
		b.add(normalized)
	}
	f.mu.Unlock()
	f.publish(b)
	return nil
}

// ClearErrors clears field errors for the given paths, or every field and
// form-level error when called without arguments.
func (f *Form) ClearErrors(paths ...string) {
	b := newBatch()
	f.mu.Lock()
	if len(paths) == 0 {
		if len(f.formErrors) > 0 {
			f.formErrors = nil
			b.form = true
		}
		for path, fs := range f.fields {
			if fs.errMsg != "" {
				fs.errMsg = ""
				b.add(path)
			}
		}
	} else {
		for _, path := range paths {
			normalized := internalpath.Normalize(path)
			if fs, ok := f.fields[normalized]; ok && fs.errMsg != "" {
				fs.errMsg = ""
				b.add(normalized)
			}
		}
	}
	f.mu.Unlock()
	f.publish(b)
}

// FormErrors returns a copy of the current form-level errors.
func (f *Form) FormErrors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.formErrors) == 0 {
		return nil
	}
	return append([]string(nil), f.formErrors...)
}

func appendUnique(existing []string, message string) []string {
	if message == "" {
		return existing
	}
	for _, m := range existing {
		if m == message {
			return existing
		}
	}
	return append(existing, message)
}

var errNilCallback = errors.New("form: callback is nil")
