package storage

import "github.com/k0kubun/kipsql/catalog"

// BinaryKind tags a ConstantBinary predicate.
type BinaryKind int

const (
	BinaryEq BinaryKind = iota
	BinaryScope
)

// ConstantBinary is a predicate literal over an index's key domain: either
// an equality against one value, or an inclusive/exclusive/unbounded range
// (GLOSSARY).
type ConstantBinary struct {
	Kind BinaryKind

	EqValue *catalog.Value

	Min, Max         *catalog.Value // nil means unbounded on that side
	MinExcl, MaxExcl bool
}

// Eq builds an equality predicate.
func Eq(v catalog.Value) ConstantBinary {
	return ConstantBinary{Kind: BinaryEq, EqValue: &v}
}

// Scope builds a range predicate. Pass nil for an unbounded side.
func Scope(min, max *catalog.Value, minExcl, maxExcl bool) ConstantBinary {
	return ConstantBinary{Kind: BinaryScope, Min: min, Max: max, MinExcl: minExcl, MaxExcl: maxExcl}
}
