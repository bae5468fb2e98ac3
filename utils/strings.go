package utils

import (
	"strings"
)

func Unpointer[T any](value *T, def T) T {
	if value == nil {
		return def
	}
	return *value
}

func StrGetOrDefault(value *string, def string) string {
	vp := Unpointer(value, def)
	if vp == "" {
		return def
	}
	return vp
}

// Canonical form for puzzle answers and keywords: trimmed, upper-cased.
func CanonicalAnswer(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
