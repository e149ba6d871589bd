package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableCatalogDerivesIndexes(t *testing.T) {
	cols := []ColumnCatalog{
		NewColumnCatalog(0, "a", false, ColumnDesc{LogicalType: Integer, IsPrimary: true}),
		NewColumnCatalog(0, "b", true, ColumnDesc{LogicalType: Integer, IsUnique: true}),
		NewColumnCatalog(0, "c", true, ColumnDesc{LogicalType: Varchar}),
	}
	tbl, err := NewTableCatalog(NewTableName("T1"), cols)
	require.NoError(t, err)

	assert.Equal(t, TableName("t1"), tbl.Name)
	assert.Len(t, tbl.Columns(), 3)
	assert.Equal(t, uint32(0), tbl.Columns()[0].ID)
	assert.Equal(t, uint32(2), tbl.Columns()[2].ID)

	pk, ok := tbl.PrimaryIndex()
	require.True(t, ok)
	assert.Equal(t, "pk_a", pk.Name)
	assert.True(t, pk.IsUnique)

	uk, ok := tbl.IndexByName("uk_b")
	require.True(t, ok)
	assert.False(t, uk.IsPrimary)
	assert.True(t, uk.IsUnique)

	_, ok = tbl.IndexByName("uk_c")
	assert.False(t, ok, "c is neither primary nor unique")
}

func TestNewTableCatalogRejectsDuplicateColumn(t *testing.T) {
	cols := []ColumnCatalog{
		NewColumnCatalog(0, "a", false, ColumnDesc{LogicalType: Integer, IsPrimary: true}),
		NewColumnCatalog(0, "a", true, ColumnDesc{LogicalType: Integer}),
	}
	_, err := NewTableCatalog(NewTableName("t1"), cols)
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestNewTableCatalogRejectsZeroPrimaryKeys(t *testing.T) {
	cols := []ColumnCatalog{
		NewColumnCatalog(0, "a", true, ColumnDesc{LogicalType: Integer}),
	}
	_, err := NewTableCatalog(NewTableName("t1"), cols)
	assert.ErrorIs(t, err, ErrInvalidPrimaryKey)
}

func TestNewTableCatalogRejectsMultiplePrimaryKeys(t *testing.T) {
	cols := []ColumnCatalog{
		NewColumnCatalog(0, "a", false, ColumnDesc{LogicalType: Integer, IsPrimary: true}),
		NewColumnCatalog(0, "b", false, ColumnDesc{LogicalType: Integer, IsPrimary: true}),
	}
	_, err := NewTableCatalog(NewTableName("t1"), cols)
	assert.ErrorIs(t, err, ErrInvalidPrimaryKey)
}

func TestPrimaryImpliesUniqueAndNotNull(t *testing.T) {
	c := NewColumnCatalog(0, "a", true, ColumnDesc{LogicalType: Integer, IsPrimary: true})
	assert.False(t, c.Nullable)
	assert.True(t, c.Desc.IsUnique)
}

func TestValueEqualAndCoerce(t *testing.T) {
	assert.True(t, Null().Equal(Null()))
	assert.False(t, Null().Equal(NewInt64(0)))
	assert.True(t, NewInt64(5).Equal(NewInt64(5)))

	v, err := NewInt64(5).CoerceTo(Integer)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int64())

	_, err = NewInt64(5).CoerceTo(Varchar)
	assert.Error(t, err)

	v, err = Null().CoerceTo(Varchar)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}
