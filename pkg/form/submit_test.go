package form

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/validate"
)

func TestSubmitValid(t *testing.T) {
	f := MustNew(WithDefaults(map[string]any{"email": "dev@example.com"}))
	if _, err := f.Register("email", rules.Required()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var received map[string]any
	err := f.Submit(context.Background(), func(ctx context.Context, record map[string]any) error {
		received = record
		if !f.IsSubmitting() {
			t.Error("IsSubmitting() = false inside the completion callback")
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := map[string]any{"email": "dev@example.com"}
	if diff := cmp.Diff(want, received); diff != "" {
		t.Errorf("callback record mismatch (-want +got):\n%s", diff)
	}
	if f.IsSubmitting() {
		t.Error("IsSubmitting() = true after Submit returned")
	}
}

func TestSubmitInvalidSkipsCallback(t *testing.T) {
	f := MustNew()
	if _, err := f.Register("email", rules.Required()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	validCalled := false
	var got validate.Errors
	err := f.Submit(context.Background(), func(context.Context, map[string]any) error {
		validCalled = true
		return nil
	}, func(errs validate.Errors) {
		got = errs
	})
	if err != nil {
		t.Fatalf("Submit() error = %v, validation failures are not errors", err)
	}
	if validCalled {
		t.Error("onValid ran despite a failing field")
	}
	if got.Fields["email"] != "this field is required" {
		t.Errorf("onInvalid errors = %v, want the required failure", got)
	}
	if f.FieldError("email") != "this field is required" {
		t.Errorf("FieldError() = %q, want the failure recorded on the field", f.FieldError("email"))
	}
}

func TestSubmitCallbackErrorBecomesFormError(t *testing.T) {
	f := MustNew()
	if _, err := f.Register("email"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	backend := errors.New("backend rejected the record")
	err := f.Submit(context.Background(), func(context.Context, map[string]any) error {
		return backend
	}, nil)
	if !errors.Is(err, backend) {
		t.Fatalf("Submit() error = %v, want the callback error surfaced", err)
	}
	if diff := cmp.Diff([]string{"backend rejected the record"}, f.FormErrors()); diff != "" {
		t.Errorf("FormErrors() mismatch (-want +got):\n%s", diff)
	}

	// The next attempt starts clean.
	err = f.Submit(context.Background(), func(context.Context, map[string]any) error {
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(f.FormErrors()) != 0 {
		t.Errorf("FormErrors() = %v, want cleared by the fresh attempt", f.FormErrors())
	}
}

func TestSubmitRejectsConcurrentAttempt(t *testing.T) {
	f := MustNew()
	if _, err := f.Register("email"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var nested error
	err := f.Submit(context.Background(), func(ctx context.Context, record map[string]any) error {
		nested = f.Submit(ctx, func(context.Context, map[string]any) error { return nil }, nil)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !errors.Is(nested, ErrSubmitInFlight) {
		t.Errorf("nested Submit() error = %v, want ErrSubmitInFlight", nested)
	}
}

func TestSubmitGuards(t *testing.T) {
	f := MustNew()
	if err := f.Submit(context.Background(), nil, nil); err == nil {
		t.Error("Submit() expected error for nil completion callback")
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.Submit(cancelled, func(context.Context, map[string]any) error { return nil }, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() error = %v, want context.Canceled", err)
	}
}
