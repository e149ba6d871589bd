package plan

import (
	"github.com/k0kubun/kipsql/ast"
	"github.com/k0kubun/kipsql/catalog"
)

// BoundExpr is a resolved expression: every identifier has become a column
// id, every literal has been coerced to a catalog.Value.
type BoundExpr interface{ boundExpr() }

// ColumnRef resolves to one column of a bound table, by dense id.
type ColumnRef struct {
	Table catalog.TableName
	ID    uint32
	Name  string
}

func (*ColumnRef) boundExpr() {}

// Const is a bound literal.
type Const struct{ Value catalog.Value }

func (*Const) boundExpr() {}

// Binary is a bound two-operand expression.
type Binary struct {
	Op          ast.BinaryOp
	Left, Right BoundExpr
}

func (*Binary) boundExpr() {}

// AggCall is a bound aggregate call. Index is this call's position in the
// binder's agg_calls list, used as the input-reference index above the
// Aggregate operator (§4.4, §9: "aggregates first, then group keys").
type AggCall struct {
	Kind  ast.AggregateKind
	Arg   BoundExpr // nil for COUNT(*)
	Index int
}

func (*AggCall) boundExpr() {}

// GroupByRef is a bound reference to one group-by key, used by Project
// exprs above an Aggregate. Index is |agg_calls| + the key's position in
// group_by_exprs (§4.4, §9).
type GroupByRef struct {
	Key   BoundExpr
	Index int
}

func (*GroupByRef) boundExpr() {}

// Star is the bound form of ast.Star: "every column of every bound table,
// in bind order".
type Star struct{}

func (*Star) boundExpr() {}
