package physical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/plan"
)

func testTable(t *testing.T) *catalog.TableCatalog {
	t.Helper()
	tbl, err := catalog.NewTableCatalog(catalog.NewTableName("t1"), []catalog.ColumnCatalog{
		catalog.NewColumnCatalog(0, "c1", false, catalog.ColumnDesc{LogicalType: catalog.Integer, IsPrimary: true}),
	})
	require.NoError(t, err)
	return tbl
}

func TestBuildProjectionOverScanAssignsPostOrderIDs(t *testing.T) {
	tbl := testTable(t)
	lp := &plan.Select{Root: &plan.Project{
		Exprs: []plan.BoundExpr{&plan.ColumnRef{Table: tbl.Name, ID: 0, Name: "c1"}},
		Child: &plan.Scan{Table: tbl},
	}}

	b := NewBuilder()
	op, err := b.Build(lp)
	require.NoError(t, err)

	proj, ok := op.(*Projection)
	require.True(t, ok)
	scan, ok := proj.Child.(*TableScan)
	require.True(t, ok)

	assert.Less(t, scan.PlanID(), proj.PlanID(), "child must have a smaller plan_id than its parent")
}

func TestBuildUnsupportedOperatorShape(t *testing.T) {
	tbl := testTable(t)
	lp := &plan.Select{Root: &plan.Filter{
		Predicate: &plan.Const{Value: catalog.NewBool(true)},
		Child:     &plan.Scan{Table: tbl},
	}}
	b := NewBuilder()
	_, err := b.Build(lp)
	assert.ErrorIs(t, err, ErrUnsupportedPlan)
}

func TestBuildDeleteGetsScanChildWithSmallerID(t *testing.T) {
	tbl := testTable(t)
	lp := &plan.Delete{Table: tbl}
	b := NewBuilder()
	op, err := b.Build(lp)
	require.NoError(t, err)
	del, ok := op.(*Delete)
	require.True(t, ok)
	scan, ok := del.Child.(*TableScan)
	require.True(t, ok)
	assert.Less(t, scan.PlanID(), del.PlanID())
}
