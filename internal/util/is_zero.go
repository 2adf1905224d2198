package util

import "reflect"

func IsZero(i interface{}) bool {
	return IsZeroVal(reflect.ValueOf(i))
}

// IsZeroVal reports whether v holds the zero value of its type.
// Unlike comparing interfaces it does not panic on uncomparable kinds.
func IsZeroVal(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return v.IsZero()
}
