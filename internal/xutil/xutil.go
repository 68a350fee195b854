// Package xutil holds small generic helpers used by the header package.
package xutil

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Batched splits input into consecutive chunks of at most n elements.
func Batched[T any](input []T, n int) [][]T {
	if n <= 0 {
		panic("xutil.Batched: n must be positive")
	}

	var batches [][]T
	for len(input) > 0 {
		end := n
		if end > len(input) {
			end = len(input)
		}
		batches = append(batches, input[:end])
		input = input[end:]
	}

	return batches
}

// SortedKeys returns the keys of m sorted in ascending order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))

	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

// Accumulate sums value(item) over input.
func Accumulate[T any, U constraints.Ordered](input []T, value func(T) U) U {
	var total U

	for _, item := range input {
		total += value(item)
	}

	return total
}

// Contains reports whether v is present in input.
func Contains[T comparable](input []T, v T) bool {
	for _, item := range input {
		if item == v {
			return true
		}
	}

	return false
}
