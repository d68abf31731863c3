package utils

// Deref returns the pointed-to value or the zero value for nil.
func Deref[T any](ptr *T) T {
	var zero T
	if ptr == nil {
		return zero
	}
	return *ptr
}
