// Package model defines the shared value types the form state packages
// exchange: the field-kind enumeration and the read-only view of a field's
// runtime state.
package model

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// FieldState is a point-in-time view of one registered field. Dirty means the
// current value differs from the default; Touched means the field has lost
// focus at least once; Validating means an asynchronous check is pending, in
// which case Error still shows the previous result.
type FieldState struct {
	Path       string `json:"path"`
	Value      any    `json:"value"`
	Default    any    `json:"default,omitempty"`
	Dirty      bool   `json:"dirty"`
	Touched    bool   `json:"touched"`
	Validating bool   `json:"validating,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Valid reports whether the field currently carries no error.
func (s FieldState) Valid() bool { return s.Error == "" }
