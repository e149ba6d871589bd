package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k0kubun/kipsql/catalog"
	"github.com/k0kubun/kipsql/mvcc"
)

func newTestStore(t *testing.T) *mvcc.Store {
	t.Helper()
	s, err := mvcc.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func intCol(name string, primary, unique bool) catalog.ColumnCatalog {
	return catalog.NewColumnCatalog(0, name, !primary, catalog.ColumnDesc{
		LogicalType: catalog.Integer,
		IsPrimary:   primary,
		IsUnique:    unique,
	})
}

// Scenario 1: CREATE TABLE t1 (a INT PRIMARY KEY) -> commit -> SHOW TABLES
// returns ["t1"]; table("t1").indexes = [{name: "pk_a", ...}].
func TestCreateTableAndShowTables(t *testing.T) {
	store := newTestStore(t)
	tx := Begin(store, 0)

	tbl, err := tx.CreateTable(catalog.NewTableName("t1"), []catalog.ColumnCatalog{intCol("a", true, false)}, false)
	require.NoError(t, err)
	pk, ok := tbl.PrimaryIndex()
	require.True(t, ok)
	assert.Equal(t, "pk_a", pk.Name)
	require.NoError(t, tx.Commit())

	tx2 := Begin(store, 0)
	names, err := tx2.ShowTables()
	require.NoError(t, err)
	assert.Equal(t, []catalog.TableName{"t1"}, names)

	reloaded, err := tx2.Table(catalog.NewTableName("t1"))
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	rpk, ok := reloaded.PrimaryIndex()
	require.True(t, ok)
	assert.Equal(t, "pk_a", rpk.Name)
	assert.True(t, rpk.IsPrimary)
	require.NoError(t, tx2.Commit())
}

func mustCreateT1WithB(t *testing.T, tx *Transaction) *catalog.TableCatalog {
	t.Helper()
	tbl, err := tx.CreateTable(catalog.NewTableName("t1"), []catalog.ColumnCatalog{
		intCol("a", true, false),
		intCol("b", false, true),
	}, false)
	require.NoError(t, err)
	return tbl
}

func insertRow(t *testing.T, tx *Transaction, tbl *catalog.TableCatalog, a, b int64) {
	t.Helper()
	vals := []catalog.Value{catalog.NewInt64(a), catalog.NewInt64(b)}
	tup := catalog.NewTuple(tbl, []uint32{0, 1}, vals)
	require.NoError(t, tx.Append(tbl.Name, tup, false))
	pk, _ := tbl.PrimaryIndex()
	require.NoError(t, tx.AddIndex(tbl.Name, pk, catalog.NewInt64(a), catalog.NewInt64(a), true))
	uk, ok := tbl.IndexByName("uk_b")
	require.True(t, ok)
	require.NoError(t, tx.AddIndex(tbl.Name, uk, catalog.NewInt64(b), catalog.NewInt64(a), true))
}

// Scenario 2: INSERT INTO t1 (a) VALUES (0),(1),(2),(3),(4) -> commit ->
// full scan yields ids [0,1,2,3,4].
func TestFullScanYieldsInsertedIDsInOrder(t *testing.T) {
	store := newTestStore(t)
	tx := Begin(store, 0)
	tbl := mustCreateT1WithB(t, tx)
	for i := int64(0); i < 5; i++ {
		insertRow(t, tx, tbl, i, i)
	}
	require.NoError(t, tx.Commit())

	tx2 := Begin(store, 0)
	it, err := tx2.Read(tbl.Name, nil, nil, nil)
	require.NoError(t, err)
	var ids []int64
	for {
		tup, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, tup.ID.Int64())
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, ids)
}

// Scenario 3: IndexIter over primary index of t1 with binaries
// [Eq(0), Scope{Included(2), Included(4)}] yields [0,2,3,4].
func TestIndexIterEqThenScope(t *testing.T) {
	store := newTestStore(t)
	tx := Begin(store, 0)
	tbl := mustCreateT1WithB(t, tx)
	for i := int64(0); i < 5; i++ {
		insertRow(t, tx, tbl, i, i)
	}
	require.NoError(t, tx.Commit())

	tx2 := Begin(store, 0)
	pk, _ := tbl.PrimaryIndex()
	two := catalog.NewInt64(2)
	four := catalog.NewInt64(4)
	binaries := []ConstantBinary{
		Eq(catalog.NewInt64(0)),
		Scope(&two, &four, false, false),
	}
	iter, err := tx2.ReadByIndex(tbl.Name, nil, nil, nil, pk, binaries)
	require.NoError(t, err)

	var ids []int64
	for {
		tup, ok, err := iter.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, tup.ID.Int64())
	}
	assert.Equal(t, []int64{0, 2, 3, 4}, ids)
}

// Scenario 4: CREATE TABLE t1 (a INT PRIMARY KEY, b INT UNIQUE), insert
// (0,0),(1,1),(2,2), then read_by_index with Scope{Excluded(0), Unbounded}
// over uk_b yields one tuple with id=1, values=[1,1].
func TestIndexIterSecondaryUniqueScope(t *testing.T) {
	store := newTestStore(t)
	tx := Begin(store, 0)
	tbl := mustCreateT1WithB(t, tx)
	insertRow(t, tx, tbl, 0, 0)
	insertRow(t, tx, tbl, 1, 1)
	insertRow(t, tx, tbl, 2, 2)
	require.NoError(t, tx.Commit())

	tx2 := Begin(store, 0)
	idx, ok2 := tbl.IndexByName("uk_b")
	require.True(t, ok2)

	zero := catalog.NewInt64(0)
	offset, limit := 0, 1
	binaries := []ConstantBinary{Scope(&zero, nil, true, false)}
	iter, err := tx2.ReadByIndex(tbl.Name, &offset, &limit, nil, idx, binaries)
	require.NoError(t, err)

	tup, ok3, err := iter.Next()
	require.NoError(t, err)
	require.True(t, ok3)
	assert.Equal(t, int64(1), tup.ID.Int64())

	_, ok4, err := iter.Next()
	require.NoError(t, err)
	assert.False(t, ok4)
}

// Scenario 5: duplicate primary key with is_overwrite=false fails the
// second insert.
func TestAppendDuplicatePrimaryKey(t *testing.T) {
	store := newTestStore(t)
	tx := Begin(store, 0)
	tbl := mustCreateT1WithB(t, tx)
	insertRow(t, tx, tbl, 0, 0)

	vals := []catalog.Value{catalog.NewInt64(0), catalog.NewInt64(99)}
	tup := catalog.NewTuple(tbl, []uint32{0, 1}, vals)
	err := tx.Append(tbl.Name, tup, false)
	assert.ErrorIs(t, err, ErrDuplicatePrimaryKey)
}

// Scenario 6: DROP TABLE t1 -> show_tables() returns [], and a subsequent
// read("t1", ...) fails TableNotFound.
func TestDropTable(t *testing.T) {
	store := newTestStore(t)
	tx := Begin(store, 0)
	tbl := mustCreateT1WithB(t, tx)
	insertRow(t, tx, tbl, 0, 0)
	require.NoError(t, tx.Commit())

	tx2 := Begin(store, 0)
	require.NoError(t, tx2.DropTable(tbl.Name))
	require.NoError(t, tx2.Commit())

	tx3 := Begin(store, 0)
	names, err := tx3.ShowTables()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = tx3.Read(tbl.Name, nil, nil, nil)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestAddIndexDuplicateUniqueValue(t *testing.T) {
	store := newTestStore(t)
	tx := Begin(store, 0)
	tbl := mustCreateT1WithB(t, tx)
	pk, _ := tbl.PrimaryIndex()

	require.NoError(t, tx.AddIndex(tbl.Name, pk, catalog.NewInt64(1), catalog.NewInt64(1), true))
	err := tx.AddIndex(tbl.Name, pk, catalog.NewInt64(1), catalog.NewInt64(2), true)
	assert.ErrorIs(t, err, ErrDuplicateUniqueValue)

	// An equal stored id is a no-op, not an error.
	require.NoError(t, tx.AddIndex(tbl.Name, pk, catalog.NewInt64(1), catalog.NewInt64(1), true))
}

func TestOffsetLimitOnFullScan(t *testing.T) {
	store := newTestStore(t)
	tx := Begin(store, 0)
	tbl := mustCreateT1WithB(t, tx)
	for i := int64(0); i < 5; i++ {
		insertRow(t, tx, tbl, i, i)
	}
	require.NoError(t, tx.Commit())

	tx2 := Begin(store, 0)
	off, lim := 1, 2
	it, err := tx2.Read(tbl.Name, &off, &lim, nil)
	require.NoError(t, err)
	var ids []int64
	for {
		tup, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, tup.ID.Int64())
	}
	assert.Equal(t, []int64{1, 2}, ids)
}
