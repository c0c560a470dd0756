// Package validate evaluates rule sets against field values and defines the
// trigger policies that decide when a form runs validation. The evaluation
// order for one field is fixed: required first, then the remaining built-ins
// in declaration order, then custom checks in declaration order. The first
// failing rule wins and its message becomes the field error.
package validate

import (
	"context"
	"errors"

	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/rules"
)

// Trigger selects when field validation runs. The policy is fixed for the
// lifetime of a form; cross-field dependency re-validation applies under
// every policy.
type Trigger string

const (
	// TriggerOnChange validates a field on every value change.
	TriggerOnChange Trigger = "change"
	// TriggerOnBlur validates a field when it loses focus.
	TriggerOnBlur Trigger = "blur"
	// TriggerOnTouched validates on blur, then on every subsequent change of
	// a field that has already been touched.
	TriggerOnTouched Trigger = "touched"
	// TriggerOnSubmit validates only on a submission attempt.
	TriggerOnSubmit Trigger = "submit"
)

// Event names the user interaction a trigger decision is made for.
type Event int

const (
	EventChange Event = iota
	EventBlur
)

// Fires reports whether the policy runs validation for an event on a field
// with the given touched state.
func (t Trigger) Fires(event Event, touched bool) bool {
	switch t {
	case TriggerOnChange:
		return event == EventChange || event == EventBlur
	case TriggerOnBlur:
		return event == EventBlur
	case TriggerOnTouched:
		if event == EventBlur {
			return true
		}
		return touched
	case TriggerOnSubmit:
		return false
	}
	return false
}

// Valid reports whether t names a known policy.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerOnChange, TriggerOnBlur, TriggerOnTouched, TriggerOnSubmit:
		return true
	}
	return false
}

// Outcome is the synchronous portion of one field validation run.
type Outcome struct {
	// Message is the first failure, "" when every synchronous rule passed.
	Message string
	// Pending holds async rules still to run; populated only when the
	// synchronous rules all passed.
	Pending []rules.Rule
}

// Failed reports whether the synchronous run produced an error.
func (o Outcome) Failed() bool { return o.Message != "" }

// Field runs a field's rules against a value. Built-ins evaluate in
// declaration order behind required; custom synchronous checks follow; async
// checks are returned for the caller to schedule, and only when everything
// synchronous passed.
func Field(ctx context.Context, value any, record map[string]any, ruleSet []rules.Rule, catalog *messages.Catalog) Outcome {
	ordered := orderRules(ruleSet)

	for _, rule := range ordered {
		if rule.Async() {
			continue
		}
		switch rule.Kind() {
		case rules.KindCustom:
			if err := rule.Run(ctx, value, record); err != nil {
				return Outcome{Message: customMessage(rule, err)}
			}
		default:
			if !rule.Evaluate(value) {
				return Outcome{Message: catalog.Render(rule, value)}
			}
		}
	}

	var pending []rules.Rule
	for _, rule := range ordered {
		if rule.Async() {
			pending = append(pending, rule)
		}
	}
	return Outcome{Pending: pending}
}

// Async runs the pending async rules sequentially and returns the first
// failure message. Errors raised by the check itself (rather than by the
// value) are mapped to a generic message.
func Async(ctx context.Context, value any, record map[string]any, pending []rules.Rule) string {
	for _, rule := range pending {
		if err := ctx.Err(); err != nil {
			return ""
		}
		if err := rule.Run(ctx, value, record); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return messages.GenericAsyncFailure
			}
			return customMessage(rule, err)
		}
	}
	return ""
}

// orderRules fixes the evaluation sequence: required, then the remaining
// built-ins, then custom checks, each bucket keeping declaration order.
func orderRules(ruleSet []rules.Rule) []rules.Rule {
	out := make([]rules.Rule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		if rule.Kind() == rules.KindRequired {
			out = append(out, rule)
		}
	}
	for _, rule := range ruleSet {
		switch rule.Kind() {
		case rules.KindRequired, rules.KindCustom, rules.KindCustomAsync:
		default:
			out = append(out, rule)
		}
	}
	for _, rule := range ruleSet {
		switch rule.Kind() {
		case rules.KindCustom, rules.KindCustomAsync:
			out = append(out, rule)
		}
	}
	return out
}

func customMessage(rule rules.Rule, err error) string {
	if override := rule.Message(); override != "" {
		return override
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return messages.GenericAsyncFailure
}
