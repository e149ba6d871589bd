package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k0kubun/kipsql/ast"
	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/mvcc"
	"github.com/k0kubun/kipsql/plan"
	"github.com/k0kubun/kipsql/storage"
)

func newTestTx(t *testing.T) *storage.Transaction {
	t.Helper()
	s, err := mvcc.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	tx := storage.Begin(s, 0)
	_, err = tx.CreateTable(catalog.NewTableName("t1"), []catalog.ColumnCatalog{
		catalog.NewColumnCatalog(0, "c1", false, catalog.ColumnDesc{LogicalType: catalog.Integer, IsPrimary: true}),
	}, false)
	require.NoError(t, err)
	_, err = tx.CreateTable(catalog.NewTableName("t2"), []catalog.ColumnCatalog{
		catalog.NewColumnCatalog(0, "c1", false, catalog.ColumnDesc{LogicalType: catalog.Integer, IsPrimary: true}),
	}, false)
	require.NoError(t, err)
	return tx
}

func selectStmt(from []ast.TableRef, proj []ast.Expr) *ast.Query {
	return &ast.Query{Body: &ast.SelectCore{Projection: proj, From: from}}
}

func TestBindSelectSimpleProjection(t *testing.T) {
	tx := newTestTx(t)
	stmt := selectStmt(
		[]ast.TableRef{{Name: ast.ObjectName{Name: "t1"}}},
		[]ast.Expr{&ast.Ident{Name: "c1"}},
	)

	p, err := Bind(tx, stmt)
	require.NoError(t, err)
	sel, ok := p.(*plan.Select)
	require.True(t, ok)
	proj, ok := sel.Root.(*plan.Project)
	require.True(t, ok)
	_, ok = proj.Child.(*plan.Scan)
	require.True(t, ok, "root should be Projection over Scan")
}

func TestBindSelectInvalidColumn(t *testing.T) {
	tx := newTestTx(t)
	stmt := selectStmt(
		[]ast.TableRef{{Name: ast.ObjectName{Name: "t1"}}},
		[]ast.Expr{&ast.Ident{Name: "cX"}},
	)
	_, err := Bind(tx, stmt)
	require.Error(t, err)
	var bindErr *Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, KindInvalidColumn, bindErr.Kind)
}

func TestBindSelectDuplicateAliasIsInvalidTable(t *testing.T) {
	tx := newTestTx(t)
	stmt := selectStmt(
		[]ast.TableRef{
			{Name: ast.ObjectName{Name: "t1"}, Alias: "a"},
			{Name: ast.ObjectName{Name: "t2"}, Alias: "a"},
		},
		[]ast.Expr{&ast.QualifiedIdent{Table: "a", Column: "c1"}},
	)
	_, err := Bind(tx, stmt)
	require.Error(t, err)
	var bindErr *Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, KindInvalidTable, bindErr.Kind)
}

func TestBindCreateTable(t *testing.T) {
	tx := newTestTx(t)
	stmt := &ast.CreateTableStmt{
		Name: ast.ObjectName{Name: "T3"},
		Columns: []ast.ColumnDef{
			{Name: "a", Type: "INT", PrimaryKey: true},
			{Name: "b", Type: "VARCHAR"},
		},
	}
	p, err := Bind(tx, stmt)
	require.NoError(t, err)
	ct, ok := p.(*plan.CreateTable)
	require.True(t, ok)
	assert.Equal(t, catalog.TableName("t3"), ct.Name)
	assert.Len(t, ct.Columns, 2)
}

func TestBindInsertInsertsNullForOmittedColumn(t *testing.T) {
	tx := newTestTx(t)
	_, err := tx.CreateTable(catalog.NewTableName("t4"), []catalog.ColumnCatalog{
		catalog.NewColumnCatalog(0, "a", false, catalog.ColumnDesc{LogicalType: catalog.Integer, IsPrimary: true}),
		catalog.NewColumnCatalog(0, "b", true, catalog.ColumnDesc{LogicalType: catalog.Integer}),
	}, false)
	require.NoError(t, err)

	stmt := &ast.InsertStmt{
		Table:   ast.ObjectName{Name: "t4"},
		Columns: []string{"a"},
		Source:  &ast.ValuesList{Rows: [][]ast.Expr{{&ast.Literal{Kind: ast.LiteralInt, Int: 1}}}},
	}
	p, err := Bind(tx, stmt)
	require.NoError(t, err)
	ins, ok := p.(*plan.Insert)
	require.True(t, ok)
	require.Len(t, ins.Rows, 1)
	assert.True(t, ins.Rows[0][1].IsNull())
}

func TestBindUpdateDeleteRejectNothingForSingleTable(t *testing.T) {
	tx := newTestTx(t)
	upd := &ast.UpdateStmt{
		Table:       ast.ObjectName{Name: "t1"},
		Assignments: []ast.Assignment{{Column: "c1", Value: &ast.Literal{Kind: ast.LiteralInt, Int: 5}}},
	}
	p, err := Bind(tx, upd)
	require.NoError(t, err)
	_, ok := p.(*plan.Update)
	assert.True(t, ok)

	del := &ast.DeleteStmt{From: ast.ObjectName{Name: "t1"}}
	p2, err := Bind(tx, del)
	require.NoError(t, err)
	_, ok = p2.(*plan.Delete)
	assert.True(t, ok)
}
