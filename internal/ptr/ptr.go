// Package ptr helps with the optional numeric fields of workout sets.
package ptr

// Ref returns a pointer to a copy of v.
func Ref[T any](v T) *T {
	return &v
}

