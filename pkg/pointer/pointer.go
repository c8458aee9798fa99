// Copyright (c) 2026 Bloomify. All rights reserved.

// Package pointer converts between optional (nullable) and plain values.
package pointer

// To returns a pointer to v.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value for nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// NonEmpty returns nil for the empty string and a pointer otherwise.
// Used for nullable text columns.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
