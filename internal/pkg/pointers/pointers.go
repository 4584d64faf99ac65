package pointers

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func Int(v int) *int          { return Ptr(v) }
func String(v string) *string { return Ptr(v) }
