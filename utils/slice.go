package utils

import (
	"strings"
)

// Produce the "?,?,?" placeholder list for a query IN clause
func SliceToPlaceholder[T any](slice []T) string {
	return strings.TrimSuffix(strings.Repeat("?,", len(slice)), ",")
}

// Convert a typed slice to []any, mostly for passing as query arguments
func SliceToAny[T any](slice []T) []any {
	result := make([]any, len(slice))
	for i := range slice {
		result[i] = slice[i]
	}
	return result
}

// Return the distinct items from the given slice, keeping first-seen order
func SliceDistinct[T comparable](slice []T) []T {
	seen := make(map[T]bool, len(slice))
	result := make([]T, 0, len(slice))
	for _, item := range slice {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
