package utils

// Ptr returns a pointer to v, handy for optional struct fields.
func Ptr[T any](v T) *T {
	return &v
}
