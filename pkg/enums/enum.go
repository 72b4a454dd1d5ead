package enums

import (
	"fmt"
	"slices"
)

// oneOf reports whether v is in set.
func oneOf[T ~string](v T, set []T) bool {
	return slices.Contains(set, v)
}

// parse matches value exactly against set. kind names the enum in the error.
func parse[T ~string](kind, value string, set []T) (T, error) {
	if v := T(value); oneOf(v, set) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
