package catalog

// ColumnDesc carries the declared constraints of a column, independent of
// its position within the table.
type ColumnDesc struct {
	LogicalType LogicalType
	IsPrimary   bool
	IsUnique    bool
	Default     *Value // nil when the column has no default
}

// Indexed reports whether a column must have an IndexMeta: primary or
// unique columns are (§3: "A column is indexed iff is_primary || is_unique").
func (d ColumnDesc) Indexed() bool { return d.IsPrimary || d.IsUnique }

// ColumnCatalog is one column's full declaration: its declaration-order
// position, its name, nullability, and its ColumnDesc.
type ColumnCatalog struct {
	ID       uint32
	Name     string
	Nullable bool
	Desc     ColumnDesc
}

// NewColumnCatalog builds a ColumnCatalog, enforcing the invariant that a
// primary column implies unique and not-null (§3).
func NewColumnCatalog(id uint32, name string, nullable bool, desc ColumnDesc) ColumnCatalog {
	if desc.IsPrimary {
		desc.IsUnique = true
		nullable = false
	}
	return ColumnCatalog{ID: id, Name: name, Nullable: nullable, Desc: desc}
}
