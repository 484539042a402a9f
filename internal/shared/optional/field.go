// Package optional models request fields that can be absent, explicitly
// null, or carry a value.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field is a three-state JSON field. The zero value is absent.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a field holding v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns an explicitly null field.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked when the key is present in the payload.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON writes null for absent and null fields.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// HasValue reports whether the field carries a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Merge returns the value to store for a non-nullable column: the incoming
// value when present, otherwise old.
func (f Field[T]) Merge(old T) T {
	if f.HasValue() {
		return f.Value
	}
	return old
}

// MergePtr returns the value to store for a nullable column. An explicit
// null clears it; absence keeps old.
func (f Field[T]) MergePtr(old *T) *T {
	if !f.Set {
		return old
	}
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}

// Ptr returns a pointer to the value, or nil when absent or null.
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.Value
	return &v
}
