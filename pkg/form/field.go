package form

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Field is the accessor returned by Register. It is a lightweight handle;
// all state lives on the Form.
type Field struct {
	form *Form
	path string
}

// Path returns the field's normalised path.
func (fd *Field) Path() string { return fd.path }

// Value returns the field's current value.
func (fd *Field) Value() any {
	value, _ := fd.form.GetValue(fd.path)
	return value
}

// SetValue writes the field's value through the store.
func (fd *Field) SetValue(value any, opts ...SetOption) error {
	return fd.form.SetValue(fd.path, value, opts...)
}

// Blur marks the field as touched, validating when the policy fires on blur.
func (fd *Field) Blur() {
	fd.form.Blur(fd.path)
}

// Validate runs the field's rules against its current value.
func (fd *Field) Validate(ctx context.Context) (string, error) {
	return fd.form.ValidateField(ctx, fd.path)
}

// State returns the field's point-in-time view.
func (fd *Field) State() model.FieldState {
	state, _ := fd.form.State(fd.path)
	return state
}

// Error returns the field's current error message.
func (fd *Field) Error() string { return fd.State().Error }

// Dirty reports whether the value differs from its default.
func (fd *Field) Dirty() bool { return fd.State().Dirty }

// Touched reports whether the field ever lost focus.
func (fd *Field) Touched() bool { return fd.State().Touched }

// Validating reports whether an asynchronous check is pending.
func (fd *Field) Validating() bool { return fd.State().Validating }
