package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reference is a foreign key that the backend may return either as a bare
// id string or as the fully populated document. Exactly one of the two
// forms is set; the zero Reference is neither.
type Reference[T any] struct {
	id        string
	value     T
	populated bool
}

// RefID builds a Reference holding only an id
func RefID[T any](id string) Reference[T] {
	return Reference[T]{id: id}
}

// RefPopulated builds a Reference holding the full value
func RefPopulated[T any](v T) Reference[T] {
	return Reference[T]{value: v, populated: true}
}

// ID returns the id when the reference is in id form
func (r Reference[T]) ID() (string, bool) {
	if r.populated || r.id == "" {
		return "", false
	}
	return r.id, true
}

// Populated returns the value when the reference is in populated form
func (r Reference[T]) Populated() (T, bool) {
	return r.value, r.populated
}

// IsZero reports whether the reference holds nothing
func (r Reference[T]) IsZero() bool {
	return !r.populated && r.id == ""
}

// Resolve returns the referenced value, calling lookup only for the id form
func (r Reference[T]) Resolve(lookup func(id string) (T, bool)) (T, bool) {
	if r.populated {
		return r.value, true
	}
	var zero T
	if r.id == "" || lookup == nil {
		return zero, false
	}
	return lookup(r.id)
}

// UnmarshalJSON accepts a string id, an object, or null
func (r *Reference[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = Reference[T]{}

	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return fmt.Errorf("reference id: %w", err)
		}
		r.id = id
		return nil
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("populated reference: %w", err)
	}
	r.value = v
	r.populated = true
	return nil
}

// MarshalJSON writes the form the reference holds
func (r Reference[T]) MarshalJSON() ([]byte, error) {
	switch {
	case r.populated:
		return json.Marshal(r.value)
	case r.id != "":
		return json.Marshal(r.id)
	default:
		return []byte("null"), nil
	}
}
