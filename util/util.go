package util

import (
	"iter"
	"sort"
)

// TransformSlice maps in to a same-length slice of R, preserving order.
// Used to turn introspected rows (columnInfo) into the catalog types the
// rest of the engine operates on, without a hand-rolled append loop at
// every call site.
func TransformSlice[T any, R any](in []T, converter func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, converter(v))
	}
	return out
}

// CanonicalMapIter walks m in ascending key order rather than Go's
// randomized map order. exec's COPY option logging uses it so that two
// runs over the same options map emit the attributes in the same order.
func CanonicalMapIter[T any](m map[string]T) iter.Seq2[string, T] {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return func(yield func(string, T) bool) {
		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
