package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k0kubun/kipsql/ast"
	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/mvcc"
	"github.com/k0kubun/kipsql/physical"
	"github.com/k0kubun/kipsql/plan"
	"github.com/k0kubun/kipsql/storage"
)

func newTx(t *testing.T) *storage.Transaction {
	t.Helper()
	s, err := mvcc.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return storage.Begin(s, 0)
}

func createT1(t *testing.T, tx *storage.Transaction) *catalog.TableCatalog {
	t.Helper()
	tbl, err := tx.CreateTable(catalog.NewTableName("t1"), []catalog.ColumnCatalog{
		catalog.NewColumnCatalog(0, "id", false, catalog.ColumnDesc{LogicalType: catalog.Integer, IsPrimary: true}),
		catalog.NewColumnCatalog(0, "name", true, catalog.ColumnDesc{LogicalType: catalog.Varchar}),
	}, false)
	require.NoError(t, err)
	return tbl
}

func TestExecuteCreateTableAndInsertAndScan(t *testing.T) {
	tx := newTx(t)
	tbl := createT1(t, tx)

	ins := &physical.Insert{
		TableName: tbl.Name,
		ColIdxs:   []uint32{0, 1},
		Rows: [][]catalog.Value{
			{catalog.NewInt64(1), catalog.NewVarchar("a")},
			{catalog.NewInt64(2), catalog.NewVarchar("b")},
		},
	}
	res, err := Execute(tx, ins)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsAffected)

	scan := &physical.TableScan{Base: tbl}
	res, err = Execute(tx, scan)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, int64(1), res.Rows[0][0].Int64())
	assert.Equal(t, int64(2), res.Rows[1][0].Int64())
}

func TestExecuteInsertDuplicatePrimaryKeyFails(t *testing.T) {
	tx := newTx(t)
	tbl := createT1(t, tx)
	ins := &physical.Insert{TableName: tbl.Name, ColIdxs: []uint32{0, 1}, Rows: [][]catalog.Value{
		{catalog.NewInt64(1), catalog.NewVarchar("a")},
	}}
	_, err := Execute(tx, ins)
	require.NoError(t, err)
	_, err = Execute(tx, ins)
	assert.ErrorIs(t, err, storage.ErrDuplicatePrimaryKey)
}

func TestExecuteDeleteWithSelection(t *testing.T) {
	tx := newTx(t)
	tbl := createT1(t, tx)
	_, err := Execute(tx, &physical.Insert{TableName: tbl.Name, ColIdxs: []uint32{0, 1}, Rows: [][]catalog.Value{
		{catalog.NewInt64(1), catalog.NewVarchar("a")},
		{catalog.NewInt64(2), catalog.NewVarchar("b")},
	}})
	require.NoError(t, err)

	del := &physical.Delete{
		TableName: tbl.Name,
		Selection: &plan.Binary{Op: ast.OpEq, Left: &plan.ColumnRef{ID: 0}, Right: &plan.Const{Value: catalog.NewInt64(1)}},
	}
	res, err := Execute(tx, del)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)

	res, err = Execute(tx, &physical.TableScan{Base: tbl})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(2), res.Rows[0][0].Int64())
}

func TestExecuteUpdateAssignsNewValue(t *testing.T) {
	tx := newTx(t)
	tbl := createT1(t, tx)
	_, err := Execute(tx, &physical.Insert{TableName: tbl.Name, ColIdxs: []uint32{0, 1}, Rows: [][]catalog.Value{
		{catalog.NewInt64(1), catalog.NewVarchar("a")},
	}})
	require.NoError(t, err)

	upd := &physical.Update{
		TableName:   tbl.Name,
		Assignments: []plan.BoundAssignment{{ColumnID: 1, Value: &plan.Const{Value: catalog.NewVarchar("z")}}},
	}
	res, err := Execute(tx, upd)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)

	res, err = Execute(tx, &physical.TableScan{Base: tbl})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "z", res.Rows[0][1].Varchar())
}

func TestExecuteTruncateRemovesAllRowsButKeepsTable(t *testing.T) {
	tx := newTx(t)
	tbl := createT1(t, tx)
	_, err := Execute(tx, &physical.Insert{TableName: tbl.Name, ColIdxs: []uint32{0, 1}, Rows: [][]catalog.Value{
		{catalog.NewInt64(1), catalog.NewVarchar("a")},
		{catalog.NewInt64(2), catalog.NewVarchar("b")},
	}})
	require.NoError(t, err)

	res, err := Execute(tx, &physical.Truncate{TableName: tbl.Name})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsAffected)

	got, err := tx.Table(tbl.Name)
	require.NoError(t, err)
	require.NotNil(t, got)

	res, err = Execute(tx, &physical.TableScan{Base: tbl})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestExecuteDropTableNotFound(t *testing.T) {
	tx := newTx(t)
	_, err := Execute(tx, &physical.DropTable{TableName: catalog.NewTableName("missing")})
	assert.ErrorIs(t, err, storage.ErrTableNotFound)

	_, err = Execute(tx, &physical.DropTable{TableName: catalog.NewTableName("missing"), IfExists: true})
	assert.NoError(t, err)
}

func TestExecuteShowTables(t *testing.T) {
	tx := newTx(t)
	createT1(t, tx)
	res, err := Execute(tx, &physical.ShowTables{})
	require.NoError(t, err)
	assert.Equal(t, []catalog.TableName{catalog.NewTableName("t1")}, res.Tables)
}

func TestExecuteProjectionOverScan(t *testing.T) {
	tx := newTx(t)
	tbl := createT1(t, tx)
	_, err := Execute(tx, &physical.Insert{TableName: tbl.Name, ColIdxs: []uint32{0, 1}, Rows: [][]catalog.Value{
		{catalog.NewInt64(1), catalog.NewVarchar("a")},
	}})
	require.NoError(t, err)

	proj := &physical.Projection{
		Exprs: []plan.BoundExpr{&plan.ColumnRef{ID: 1, Name: "name"}},
		Child: &physical.TableScan{Base: tbl},
	}
	res, err := Execute(tx, proj)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Len(t, res.Rows[0], 1)
	assert.Equal(t, "a", res.Rows[0][0].Varchar())
}
