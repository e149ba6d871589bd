package catalog

// Tuple is a row: an optional primary key value, the ordered column ids it
// carries, and one Value per column (§3).
type Tuple struct {
	ID      *Value // the primary key value, nil if the table has no primary index
	Columns []uint32
	Values  []Value
}

// NewTuple builds a Tuple, deriving ID from the value at the primary
// column's position when the table declares one (§3: "if the table has a
// primary index, id is the value at the primary column's position").
func NewTuple(table *TableCatalog, columns []uint32, values []Value) Tuple {
	tup := Tuple{Columns: columns, Values: values}
	if pk, ok := table.PrimaryIndex(); ok {
		pkCol := pk.ColumnIDs[0]
		for i, c := range columns {
			if c == pkCol {
				v := values[i]
				tup.ID = &v
				break
			}
		}
	}
	return tup
}

// ValueFor returns the value bound to the given column id, if present.
func (t Tuple) ValueFor(colID uint32) (Value, bool) {
	for i, c := range t.Columns {
		if c == colID {
			return t.Values[i], true
		}
	}
	return Value{}, false
}
