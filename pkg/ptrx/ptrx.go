// Package ptrx holds small pointer helpers for optional fields.
package ptrx

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the value v points to, or the zero value for nil.
func Deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// DerefOr returns the value v points to, or fallback for nil.
func DerefOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
