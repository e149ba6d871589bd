// Package plan is the LogicalPlan sum the binder produces (§3, §9): a
// tagged sum over a private marker method rather than a deep class
// hierarchy, matching ast's convention. Child pointers are never aliased
// into two parents, approximating the move-semantics discipline §9 asks
// for.
package plan

import (
	"github.com/k0kubun/kipsql/ast"
	"github.com/k0kubun/kipsql/catalog"
)

// LogicalPlan is the sum of Select, CreateTable, Insert, Delete, Update,
// DropTable, Truncate, ShowTables, Copy (§3).
type LogicalPlan interface{ logicalPlan() }

// Operator is the sum of Select's tree nodes: Project, Scan, Filter, Join,
// Aggregate, Sort, Limit (§3).
type Operator interface{ operator() }

// Scan is a full scan of one bound table.
type Scan struct {
	Table *catalog.TableCatalog
}

func (*Scan) operator() {}

// Filter applies a bound predicate expression to its child's rows.
type Filter struct {
	Predicate BoundExpr
	Child     Operator
}

func (*Filter) operator() {}

// Project selects/renames columns/expressions from its child's rows.
type Project struct {
	Exprs []BoundExpr
	Child Operator
}

func (*Project) operator() {}

// Join combines two children on an optional bound condition. Only
// syntactic recognition is supported (§1 Non-goals); no join algorithm
// selection happens here.
type Join struct {
	Left, Right Operator
	Kind        ast.JoinType
	On          BoundExpr // nil for a cross join
}

func (*Join) operator() {}

// Aggregate groups its child's rows by GroupBy and computes AggCalls per
// group, using the "aggregates first, then group keys" positional
// convention of §4.4/§9.
type Aggregate struct {
	AggCalls    []BoundExpr
	GroupBy     []BoundExpr
	Child       Operator
}

func (*Aggregate) operator() {}

// Sort orders its child's rows by Keys.
type Sort struct {
	Keys  []SortKey
	Child Operator
}

func (*Sort) operator() {}

// SortKey is one ORDER BY key, bound.
type SortKey struct {
	Expr BoundExpr
	Desc bool
}

// Limit bounds its child's row count by an optional offset/count pair.
type Limit struct {
	Offset *int64
	Count  *int64
	Child  Operator
}

func (*Limit) operator() {}

// --- top-level logical plans ------------------------------------------------

// Select wraps the root Operator of a bound SELECT.
type Select struct{ Root Operator }

func (*Select) logicalPlan() {}

// CreateTable is the bound form of ast.CreateTableStmt.
type CreateTable struct {
	Name        catalog.TableName
	Columns     []catalog.ColumnCatalog
	IfNotExists bool
}

func (*CreateTable) logicalPlan() {}

// Insert is the bound form of ast.InsertStmt: literal rows coerced to the
// target table's column types, in target-table column order.
type Insert struct {
	Table     *catalog.TableCatalog
	ColIdxs   []uint32
	Rows      [][]catalog.Value
	Overwrite bool
}

func (*Insert) logicalPlan() {}

// Delete is the bound form of ast.DeleteStmt. Joins are rejected by the
// binder (§4.4), so Table is always a single table.
type Delete struct {
	Table     *catalog.TableCatalog
	Selection BoundExpr // nil when absent
}

func (*Delete) logicalPlan() {}

// BoundAssignment is one bound "col = expr" pair.
type BoundAssignment struct {
	ColumnID uint32
	Value    BoundExpr
}

// Update is the bound form of ast.UpdateStmt.
type Update struct {
	Table       *catalog.TableCatalog
	Assignments []BoundAssignment
	Selection   BoundExpr // nil when absent
}

func (*Update) logicalPlan() {}

// DropTable is the bound form of ast.DropStmt for object type table.
type DropTable struct {
	Name     catalog.TableName
	IfExists bool
}

func (*DropTable) logicalPlan() {}

// Truncate is the bound form of ast.TruncateStmt.
type Truncate struct{ Table *catalog.TableCatalog }

func (*Truncate) logicalPlan() {}

// ShowTables is the bound form of ast.ShowTablesStmt.
type ShowTables struct{}

func (*ShowTables) logicalPlan() {}

// Copy is the bound form of ast.CopyStmt.
type Copy struct {
	Table   *catalog.TableCatalog
	Source  ast.CopyTarget
	To      bool
	Target  ast.CopyTarget
	Options map[string]string
}

func (*Copy) logicalPlan() {}
