package catalog

import "fmt"

// TableName is the shared, immutable, case-normalized string identity of a
// table (§3).
type TableName string

// NewTableName normalizes a raw identifier into a TableName.
func NewTableName(raw string) TableName {
	return TableName(NormalizeIdentifierName(raw))
}

func (t TableName) String() string { return string(t) }

// IndexMeta describes one index over a table (§3).
type IndexMeta struct {
	ID        uint32
	ColumnIDs []uint32
	Name      string
	IsUnique  bool
	IsPrimary bool
}

// primaryIndexName builds the "pk_<col>" convention; secondaryIndexName
// builds "uk_<col>" (§3).
func primaryIndexName(col string) string   { return "pk_" + col }
func secondaryIndexName(col string) string { return "uk_" + col }

// TableCatalog is the authoritative, in-memory shape of one table: its
// name, its columns in declaration order, and its indexes in creation
// order.
//
// Invariants enforced by NewTableCatalog: exactly one primary index, every
// unique column has an index meta, column ids are dense from zero in
// declaration order, names are unique within the table (§3).
type TableCatalog struct {
	Name    TableName
	columns []ColumnCatalog
	byName  map[string]int // name -> index into columns
	Indexes []IndexMeta
}

// NewTableCatalog assembles a TableCatalog from column declarations in
// source order, deriving one IndexMeta per indexed column. Returns
// ErrDuplicateColumn if two columns share a name, or ErrInvalidPrimaryKey
// if the declaration does not carry exactly one primary column.
func NewTableCatalog(name TableName, cols []ColumnCatalog) (*TableCatalog, error) {
	t := &TableCatalog{
		Name:   name,
		byName: make(map[string]int, len(cols)),
	}
	nextIndexID := uint32(0)
	primaries := 0
	for i, c := range cols {
		c.ID = uint32(i)
		if _, exists := t.byName[c.Name]; exists {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateColumn, name, c.Name)
		}
		t.byName[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)

		if c.Desc.IsPrimary {
			primaries++
			t.Indexes = append(t.Indexes, IndexMeta{
				ID:        nextIndexID,
				ColumnIDs: []uint32{c.ID},
				Name:      primaryIndexName(c.Name),
				IsUnique:  true,
				IsPrimary: true,
			})
			nextIndexID++
		} else if c.Desc.IsUnique {
			t.Indexes = append(t.Indexes, IndexMeta{
				ID:        nextIndexID,
				ColumnIDs: []uint32{c.ID},
				Name:      secondaryIndexName(c.Name),
				IsUnique:  true,
				IsPrimary: false,
			})
			nextIndexID++
		}
	}
	if primaries != 1 {
		return nil, fmt.Errorf("%w: %s declares %d", ErrInvalidPrimaryKey, name, primaries)
	}
	return t, nil
}

// Columns returns the columns in declaration order. Callers must not mutate
// the returned slice.
func (t *TableCatalog) Columns() []ColumnCatalog { return t.columns }

// Column looks up a column by name.
func (t *TableCatalog) Column(name string) (ColumnCatalog, bool) {
	i, ok := t.byName[name]
	if !ok {
		return ColumnCatalog{}, false
	}
	return t.columns[i], true
}

// ColumnByID looks up a column by its dense declaration-order id.
func (t *TableCatalog) ColumnByID(id uint32) (ColumnCatalog, bool) {
	if int(id) >= len(t.columns) {
		return ColumnCatalog{}, false
	}
	return t.columns[id], true
}

// PrimaryIndex returns the table's single primary IndexMeta, if any.
func (t *TableCatalog) PrimaryIndex() (IndexMeta, bool) {
	for _, idx := range t.Indexes {
		if idx.IsPrimary {
			return idx, true
		}
	}
	return IndexMeta{}, false
}

// IndexByName looks up an index by its pk_/uk_ name.
func (t *TableCatalog) IndexByName(name string) (IndexMeta, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexMeta{}, false
}
