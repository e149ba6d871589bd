// Package catalog holds the in-memory descriptions of tables, columns, and
// index metadata that the binder resolves names against.
package catalog

import "fmt"

// LogicalType is the type tag carried by a column and by any Value stored
// under it.
type LogicalType int

const (
	Integer LogicalType = iota
	Boolean
	Varchar
)

func (t LogicalType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Boolean:
		return "BOOLEAN"
	case Varchar:
		return "VARCHAR"
	default:
		return fmt.Sprintf("LogicalType(%d)", int(t))
	}
}

// Value is a typed scalar carried by tuples, defaults, and ConstantBinary
// predicates. The zero Value is the Integer 0; use Null() for a null.
type Value struct {
	typ     LogicalType
	isNull  bool
	i64     int64
	boolean bool
	str     string
}

// Null returns the null value; it has no type of its own and is comparable
// against any column.
func Null() Value { return Value{isNull: true} }

func NewInt64(v int64) Value  { return Value{typ: Integer, i64: v} }
func NewBool(v bool) Value    { return Value{typ: Boolean, boolean: v} }
func NewVarchar(v string) Value { return Value{typ: Varchar, str: v} }

func (v Value) IsNull() bool     { return v.isNull }
func (v Value) Type() LogicalType { return v.typ }
func (v Value) Int64() int64     { return v.i64 }
func (v Value) Bool() bool       { return v.boolean }
func (v Value) Varchar() string  { return v.str }

// Equal reports whether two values carry the same type and payload; two
// Null values are equal to each other regardless of declared type.
func (v Value) Equal(other Value) bool {
	if v.isNull || other.isNull {
		return v.isNull == other.isNull
	}
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case Integer:
		return v.i64 == other.i64
	case Boolean:
		return v.boolean == other.boolean
	case Varchar:
		return v.str == other.str
	default:
		return false
	}
}

func (v Value) String() string {
	if v.isNull {
		return "NULL"
	}
	switch v.typ {
	case Integer:
		return fmt.Sprintf("%d", v.i64)
	case Boolean:
		return fmt.Sprintf("%t", v.boolean)
	case Varchar:
		return v.str
	default:
		return "?"
	}
}

// CoerceTo converts a literal value into the target logical type, the way
// the binder needs when binding an INSERT literal against a column
// (§4.4: "coerce each literal to the target column type").
func (v Value) CoerceTo(target LogicalType) (Value, error) {
	if v.isNull {
		return Null(), nil
	}
	if v.typ == target {
		return v, nil
	}
	return Value{}, fmt.Errorf("catalog: cannot coerce %s value to %s", v.typ, target)
}
