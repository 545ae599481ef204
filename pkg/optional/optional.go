// Package optional provides a JSON field wrapper that remembers whether the
// key was present in the decoded payload.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds a decoded value together with its presence. A key sent as
// JSON null is present with Null set and the zero Value.
type Field[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Of returns a present field holding v.
func Of[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked by encoding/json when the key exists.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Value = zero
		f.Null = true
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON renders absent and null fields as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Get returns the value and whether it was present.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Set
}

// OrElse returns the value when present, fallback otherwise.
func (f Field[T]) OrElse(fallback T) T {
	if f.Set {
		return f.Value
	}
	return fallback
}
