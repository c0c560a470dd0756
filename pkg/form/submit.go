package form

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/validate"
)

// Submit gates the completion callback behind a full validation pass. When
// every field validates, onValid receives a snapshot of the current values;
// an error it returns is recorded as a form-level error and returned. When
// validation fails, onInvalid receives the aggregate errors and onValid is
// never called. Submit returns nil in that case: validation failures are
// data, not errors.
//
// Submissions are serialized: a Submit call while another is in flight
// returns ErrSubmitInFlight without starting a second validation cycle.
// Observers can read the in-flight state through IsSubmitting.
func (f *Form) Submit(ctx context.Context, onValid func(context.Context, map[string]any) error, onInvalid func(validate.Errors)) error {
	if onValid == nil {
		return errNilCallback
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b := newBatch()
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitting = true
	// A fresh attempt clears errors left over from the previous one.
	if len(f.formErrors) > 0 {
		f.formErrors = nil
	}
	b.form = true
	f.mu.Unlock()
	f.publish(b)

	errs := f.ValidateAll(ctx)
	if !errs.OK() {
		f.finishSubmit(nil)
		if onInvalid != nil {
			onInvalid(errs)
		}
		return nil
	}

	err := onValid(ctx, f.Snapshot())
	f.finishSubmit(err)
	return err
}

// IsSubmitting reports whether a submission is currently in flight.
func (f *Form) IsSubmitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *Form) finishSubmit(callbackErr error) {
	b := newBatch()
	f.mu.Lock()
	f.submitting = false
	if callbackErr != nil {
		f.formErrors = appendUnique(f.formErrors, callbackErr.Error())
	}
	b.form = true
	f.mu.Unlock()
	f.publish(b)
}
