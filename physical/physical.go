// Package physical lowers a plan.LogicalPlan into a PhysicalOperator tree,
// assigning monotonic plan identifiers in post-order (§4.5).
package physical

import (
	"fmt"

	"github.com/k0kubun/kipsql/ast"
	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/plan"
)

// Operator is the sum whose variants mirror logical operators but carry
// scan strategy, a monotonic plan_id, and resolved expressions (§3).
type Operator interface {
	operator()
	PlanID() int
}

type node struct{ id int }

func (n node) PlanID() int { return n.id }

// TableScan is a full scan; no index selection happens in this slice
// (§4.5: "no index selection yet; specification reserves a future
// IndexScan variant").
type TableScan struct {
	node
	Base *catalog.TableCatalog
}

func (*TableScan) operator() {}

// Projection evaluates Exprs over Child's rows.
type Projection struct {
	node
	Exprs []plan.BoundExpr
	Child Operator
}

func (*Projection) operator() {}

// CreateTable is the physical form of plan.CreateTable.
type CreateTable struct {
	node
	TableName catalog.TableName
	Columns   []catalog.ColumnCatalog
	IfNotExists bool
}

func (*CreateTable) operator() {}

// Insert is the physical form of plan.Insert.
type Insert struct {
	node
	TableName catalog.TableName
	ColIdxs   []uint32
	Rows      [][]catalog.Value
	Overwrite bool
}

func (*Insert) operator() {}

// Delete is the physical form of plan.Delete, §4.5 [FULL]: Child is a
// TableScan over the same table. exec scans the table itself and does not
// read rows from Child.
type Delete struct {
	node
	TableName catalog.TableName
	Selection plan.BoundExpr
	Child     Operator
}

func (*Delete) operator() {}

// Update is the physical form of plan.Update, §4.5 [FULL].
type Update struct {
	node
	TableName   catalog.TableName
	Assignments []plan.BoundAssignment
	Selection   plan.BoundExpr
	Child       Operator
}

func (*Update) operator() {}

// DropTable is the physical form of plan.DropTable, §4.5 [FULL].
type DropTable struct {
	node
	TableName catalog.TableName
	IfExists  bool
}

func (*DropTable) operator() {}

// Truncate is the physical form of plan.Truncate, §4.5 [FULL].
type Truncate struct {
	node
	TableName catalog.TableName
}

func (*Truncate) operator() {}

// ShowTables is the physical form of plan.ShowTables, §4.5 [FULL].
type ShowTables struct{ node }

func (*ShowTables) operator() {}

// Copy is the physical form of plan.Copy, §4.5 [FULL].
type Copy struct {
	node
	TableName catalog.TableName
	Source    ast.CopyTarget
	To        bool
	Target    ast.CopyTarget
	Options   map[string]string
}

func (*Copy) operator() {}

// Builder assigns monotonic plan ids; it is stateless beyond that counter
// and performs no optimisation (§4.5).
type Builder struct{ nextID int }

// NewBuilder returns a Builder with its plan_id counter at zero.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) next() int {
	id := b.nextID
	b.nextID++
	return id
}

// ErrUnsupportedPlan is returned for any logical or operator shape the
// physical planner does not dispatch (§4.5: "Select(other) -> unsupported").
var ErrUnsupportedPlan = fmt.Errorf("physical: unsupported plan shape")

// Build lowers a LogicalPlan into a PhysicalOperator tree.
func (b *Builder) Build(lp plan.LogicalPlan) (Operator, error) {
	switch l := lp.(type) {
	case *plan.Select:
		return b.buildOperator(l.Root)

	case *plan.CreateTable:
		return &CreateTable{node: node{b.next()}, TableName: l.Name, Columns: l.Columns, IfNotExists: l.IfNotExists}, nil

	case *plan.Insert:
		return &Insert{node: node{b.next()}, TableName: l.Table.Name, ColIdxs: l.ColIdxs, Rows: l.Rows, Overwrite: l.Overwrite}, nil

	case *plan.Delete:
		child := &TableScan{node: node{b.next()}, Base: l.Table}
		return &Delete{node: node{b.next()}, TableName: l.Table.Name, Selection: l.Selection, Child: child}, nil

	case *plan.Update:
		child := &TableScan{node: node{b.next()}, Base: l.Table}
		return &Update{node: node{b.next()}, TableName: l.Table.Name, Assignments: l.Assignments, Selection: l.Selection, Child: child}, nil

	case *plan.DropTable:
		return &DropTable{node: node{b.next()}, TableName: l.Name, IfExists: l.IfExists}, nil

	case *plan.Truncate:
		return &Truncate{node: node{b.next()}, TableName: l.Table.Name}, nil

	case *plan.ShowTables:
		return &ShowTables{node: node{b.next()}}, nil

	case *plan.Copy:
		return &Copy{node: node{b.next()}, TableName: l.Table.Name, Source: l.Source, To: l.To, Target: l.Target, Options: l.Options}, nil

	default:
		return nil, ErrUnsupportedPlan
	}
}

// buildOperator dispatches Select's operator tree. Only Project{child} and
// a bare Scan are supported in this slice; every other operator shape is
// unsupported until a future IndexScan/Filter/Aggregate lowering exists
// (§4.5).
func (b *Builder) buildOperator(op plan.Operator) (Operator, error) {
	switch o := op.(type) {
	case *plan.Project:
		child, err := b.buildOperator(o.Child)
		if err != nil {
			return nil, err
		}
		return &Projection{node: node{b.next()}, Exprs: o.Exprs, Child: child}, nil

	case *plan.Scan:
		return &TableScan{node: node{b.next()}, Base: o.Table}, nil

	default:
		return nil, ErrUnsupportedPlan
	}
}
