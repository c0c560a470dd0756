package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/validate"
)

func TestWatchBroadReceivesEveryBatch(t *testing.T) {
	f := MustNew()
	if _, err := f.Register("a"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := f.Register("b"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var got []Change
	unsubscribe, err := f.Watch(func(c Change) { got = append(got, c) })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer unsubscribe()

	if err := f.SetValue("a", 1); err != nil {
		t.Fatalf("SetValue(a) error = %v", err)
	}
	if err := f.SetValue("b", 2); err != nil {
		t.Fatalf("SetValue(b) error = %v", err)
	}

	want := []Change{
		{Paths: []string{"a"}},
		{Paths: []string{"b"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("broad observer mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchNarrowIsolation(t *testing.T) {
	f := MustNew()
	if _, err := f.Register("a"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := f.Register("b"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var got []Change
	unsubscribe, err := f.Watch(func(c Change) { got = append(got, c) }, "a")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer unsubscribe()

	if err := f.SetValue("b", 1); err != nil {
		t.Fatalf("SetValue(b) error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("narrow observer fired for an unrelated path: %v", got)
	}

	if err := f.SetValue("a", 1); err != nil {
		t.Fatalf("SetValue(a) error = %v", err)
	}
	want := []Change{{Paths: []string{"a"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("narrow observer mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchRejectsUnregisteredPath(t *testing.T) {
	f := MustNew()
	if _, err := f.Watch(func(Change) {}, "ghost"); err == nil {
		t.Error("Watch() expected error for unregistered path")
	}
	if _, err := f.Watch(nil); err == nil {
		t.Error("Watch() expected error for nil callback")
	}
}

func TestRepeatBlurWithUnchangedStateIsSilent(t *testing.T) {
	f := MustNew(
		WithTrigger(validate.TriggerOnBlur),
		WithDefaults(map[string]any{"email": "dev@example.com"}),
	)
	if _, err := f.Register("email", rules.Required()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var got []Change
	unsubscribe, err := f.Watch(func(c Change) { got = append(got, c) }, "email")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer unsubscribe()

	// The first blur transitions the field to touched.
	f.Blur("email")
	want := []Change{{Paths: []string{"email"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("first blur mismatch (-want +got):\n%s", diff)
	}

	// A repeat blur changes nothing and stays silent.
	f.Blur("email")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("repeat blur notified without a state change (-want +got):\n%s", diff)
	}
}

func TestResetNotifiesOnce(t *testing.T) {
	f := MustNew(WithDefaults(map[string]any{"a": 1, "b": 2}))
	if _, err := f.Register("a"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := f.Register("b"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var got []Change
	unsubscribe, err := f.Watch(func(c Change) { got = append(got, c) })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer unsubscribe()

	f.Reset()

	want := []Change{{Paths: []string{"a", "b"}, Form: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Reset() notification mismatch (-want +got):\n%s", diff)
	}
}

func TestUnsubscribeDuringDelivery(t *testing.T) {
	f := MustNew()
	if _, err := f.Register("a"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var secondCalls int
	var unsubscribeSecond func()

	// The first observer tears down the second mid-batch; the second must not
	// run for that batch.
	unsubscribeFirst, err := f.Watch(func(Change) { unsubscribeSecond() })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer unsubscribeFirst()

	unsubscribeSecond, err = f.Watch(func(Change) { secondCalls++ })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := f.SetValue("a", 1); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if secondCalls != 0 {
		t.Errorf("second observer ran %d times after being unsubscribed mid-delivery", secondCalls)
	}

	// Unsubscribing again is a no-op.
	unsubscribeSecond()
}

func TestMutationInsideCallbackQueues(t *testing.T) {
	f := MustNew()
	if _, err := f.Register("a"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := f.Register("b"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	reacted := false
	unsubscribeNarrow, err := f.Watch(func(Change) {
		if !reacted {
			reacted = true
			if err := f.SetValue("b", "cascade"); err != nil {
				t.Errorf("SetValue(b) inside callback error = %v", err)
			}
		}
	}, "a")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer unsubscribeNarrow()

	var got []Change
	unsubscribeBroad, err := f.Watch(func(c Change) { got = append(got, c) })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer unsubscribeBroad()

	if err := f.SetValue("a", 1); err != nil {
		t.Fatalf("SetValue(a) error = %v", err)
	}

	// The cascade batch is delivered after the triggering batch completes,
	// never interleaved into it.
	want := []Change{
		{Paths: []string{"a"}},
		{Paths: []string{"b"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cascade ordering mismatch (-want +got):\n%s", diff)
	}
	if value, _ := f.GetValue("b"); value != "cascade" {
		t.Errorf("GetValue(b) = %v, want the callback's write applied", value)
	}
}
