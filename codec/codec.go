// Package codec translates catalog objects, tuples, and index entries
// to/from lexicographically ordered byte keys. It is a set of pure
// functions: it owns no state (§4.1).
package codec

import (
	"bytes"
	"fmt"

	"github.com/k0kubun/kipsql/catalog"
)

// Key family prefixes. "Idx/" is not a prefix of "IdxMeta/" and vice versa:
// comparing byte-for-byte, '/' (0x2F) < 'M' (0x4D), so the two families
// never interleave even though their names share a common stem.
const (
	familyRoot    = "Root"
	familyCol     = "Col"
	familyIdxMeta = "IdxMeta"
	familyTuple   = "Tuple"
	familyIdx     = "Idx"
)

const sep = '/'

func join(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for i, p := range parts {
		if i > 0 {
			buf.WriteByte(sep)
		}
		buf.Write(p)
	}
	return buf.Bytes()
}

// Bound is an iteration range: Lower is inclusive, Upper is exclusive
// (matching the convention of pebble's Iterator), computed as the
// successor of the family's prefix so the range enumerates exactly one
// family for one table and nothing else.
type Bound struct {
	Lower []byte
	Upper []byte
}

// Contains reports whether key falls within the bound, used by tests that
// assert "every key falls within exactly one family's bound" (§8).
func (b Bound) Contains(key []byte) bool {
	if bytes.Compare(key, b.Lower) < 0 {
		return false
	}
	if b.Upper != nil && bytes.Compare(key, b.Upper) >= 0 {
		return false
	}
	return true
}

// prefixUpperBound returns the smallest byte string that is strictly
// greater than every string with the given prefix, or nil if the prefix
// is all 0xFF bytes (meaning "no upper bound").
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xFF {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

func boundFor(prefix []byte) Bound {
	return Bound{Lower: prefix, Upper: prefixUpperBound(prefix)}
}

// RootKey encodes the Root/<table_name> key.
func RootKey(table catalog.TableName) []byte {
	return join([]byte(familyRoot), []byte(table))
}

// RootBound is the [min,max) range enumerating every Root key.
func RootBound() Bound {
	return boundFor(append([]byte(familyRoot), sep))
}

// ColKey encodes the Col/<table>/<col_id> key.
func ColKey(table catalog.TableName, colID uint32) []byte {
	return join([]byte(familyCol), []byte(table), EncodeUint32(colID))
}

// ColBound is the range enumerating every Col key for one table.
func ColBound(table catalog.TableName) Bound {
	return boundFor(join([]byte(familyCol), []byte(table), nil))
}

// IdxMetaKey encodes the IdxMeta/<table>/<index_id> key.
func IdxMetaKey(table catalog.TableName, indexID uint32) []byte {
	return join([]byte(familyIdxMeta), []byte(table), EncodeUint32(indexID))
}

// IdxMetaBound is the range enumerating every IdxMeta key for one table.
func IdxMetaBound(table catalog.TableName) Bound {
	return boundFor(join([]byte(familyIdxMeta), []byte(table), nil))
}

// TupleKey encodes the Tuple/<table>/<encoded_pk> key.
func TupleKey(table catalog.TableName, pk catalog.Value) []byte {
	return join([]byte(familyTuple), []byte(table), EncodeValue(pk))
}

// TupleBound is the range enumerating every Tuple key for one table.
func TupleBound(table catalog.TableName) Bound {
	return boundFor(join([]byte(familyTuple), []byte(table), nil))
}

// IdxKey encodes the Idx/<table>/<index_id>/<encoded_key> key.
func IdxKey(table catalog.TableName, indexID uint32, key catalog.Value) []byte {
	return join([]byte(familyIdx), []byte(table), EncodeUint32(indexID), EncodeValue(key))
}

// IdxBound is the range enumerating every Idx key for one (table, index).
func IdxBound(table catalog.TableName, indexID uint32) Bound {
	return boundFor(join([]byte(familyIdx), []byte(table), EncodeUint32(indexID), nil))
}

// IdxKeyBound builds a Scope{min,max} range over one index's key domain,
// used by IndexIter to open a range scan (§4.3).
func IdxKeyBound(table catalog.TableName, indexID uint32, min, max *catalog.Value, minExcl, maxExcl bool) Bound {
	prefix := join([]byte(familyIdx), []byte(table), EncodeUint32(indexID), nil)
	b := Bound{Lower: prefix, Upper: prefixUpperBound(prefix)}
	if min != nil {
		lo := join([]byte(familyIdx), []byte(table), EncodeUint32(indexID), EncodeValue(*min))
		if minExcl {
			lo = append(lo, 0x00)
		}
		b.Lower = lo
	}
	if max != nil {
		hi := join([]byte(familyIdx), []byte(table), EncodeUint32(indexID), EncodeValue(*max))
		if !maxExcl {
			hi = prefixUpperBound(hi)
		}
		b.Upper = hi
	}
	return b
}

// TupleKeyBound builds a Scope{min,max} range over the primary key domain,
// used by IndexIter when scanning a primary index directly (the primary
// index key domain coincides with the Tuple family's).
func TupleKeyBound(table catalog.TableName, min, max *catalog.Value, minExcl, maxExcl bool) Bound {
	prefix := join([]byte(familyTuple), []byte(table), nil)
	b := Bound{Lower: prefix, Upper: prefixUpperBound(prefix)}
	if min != nil {
		lo := join([]byte(familyTuple), []byte(table), EncodeValue(*min))
		if minExcl {
			lo = append(lo, 0x00)
		}
		b.Lower = lo
	}
	if max != nil {
		hi := join([]byte(familyTuple), []byte(table), EncodeValue(*max))
		if !maxExcl {
			hi = prefixUpperBound(hi)
		}
		b.Upper = hi
	}
	return b
}

// --- payload serialization -------------------------------------------------

// EncodeTableName serializes a TableName value payload for the Root family.
func EncodeTableName(name catalog.TableName) []byte { return []byte(name) }

func DecodeTableName(b []byte) (catalog.TableName, error) {
	return catalog.TableName(b), nil
}

// EncodeColumn serializes a ColumnCatalog value payload for the Col family.
func EncodeColumn(c catalog.ColumnCatalog) []byte {
	var buf bytes.Buffer
	buf.Write(EncodeUint32(c.ID))
	writeString(&buf, c.Name)
	buf.WriteByte(boolByte(c.Nullable))
	buf.WriteByte(byte(c.Desc.LogicalType))
	buf.WriteByte(boolByte(c.Desc.IsPrimary))
	buf.WriteByte(boolByte(c.Desc.IsUnique))
	if c.Desc.Default == nil {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
		dv := EncodeValue(*c.Desc.Default)
		writeBytes(&buf, dv)
	}
	return buf.Bytes()
}

func DecodeColumn(b []byte) (catalog.ColumnCatalog, error) {
	r := bytes.NewReader(b)
	id, err := readUint32(r)
	if err != nil {
		return catalog.ColumnCatalog{}, err
	}
	name, err := readString(r)
	if err != nil {
		return catalog.ColumnCatalog{}, err
	}
	nullable, err := readBool(r)
	if err != nil {
		return catalog.ColumnCatalog{}, err
	}
	typByte, err := r.ReadByte()
	if err != nil {
		return catalog.ColumnCatalog{}, fmt.Errorf("%w: column type: %v", ErrDecode, err)
	}
	isPrimary, err := readBool(r)
	if err != nil {
		return catalog.ColumnCatalog{}, err
	}
	isUnique, err := readBool(r)
	if err != nil {
		return catalog.ColumnCatalog{}, err
	}
	hasDefault, err := r.ReadByte()
	if err != nil {
		return catalog.ColumnCatalog{}, fmt.Errorf("%w: column default flag: %v", ErrDecode, err)
	}
	desc := catalog.ColumnDesc{
		LogicalType: catalog.LogicalType(typByte),
		IsPrimary:   isPrimary,
		IsUnique:    isUnique,
	}
	if hasDefault == 1 {
		raw, err := readBytes(r)
		if err != nil {
			return catalog.ColumnCatalog{}, err
		}
		v, _, err := DecodeValue(raw)
		if err != nil {
			return catalog.ColumnCatalog{}, err
		}
		desc.Default = &v
	}
	return catalog.ColumnCatalog{ID: id, Name: name, Nullable: nullable, Desc: desc}, nil
}

// EncodeIndexMeta serializes an IndexMeta value payload for the IdxMeta family.
func EncodeIndexMeta(m catalog.IndexMeta) []byte {
	var buf bytes.Buffer
	buf.Write(EncodeUint32(m.ID))
	buf.Write(EncodeUint32(uint32(len(m.ColumnIDs))))
	for _, c := range m.ColumnIDs {
		buf.Write(EncodeUint32(c))
	}
	writeString(&buf, m.Name)
	buf.WriteByte(boolByte(m.IsUnique))
	buf.WriteByte(boolByte(m.IsPrimary))
	return buf.Bytes()
}

func DecodeIndexMeta(b []byte) (catalog.IndexMeta, error) {
	r := bytes.NewReader(b)
	id, err := readUint32(r)
	if err != nil {
		return catalog.IndexMeta{}, err
	}
	n, err := readUint32(r)
	if err != nil {
		return catalog.IndexMeta{}, err
	}
	cols := make([]uint32, 0, n)
	for i := uint32(0); i < n; i++ {
		c, err := readUint32(r)
		if err != nil {
			return catalog.IndexMeta{}, err
		}
		cols = append(cols, c)
	}
	name, err := readString(r)
	if err != nil {
		return catalog.IndexMeta{}, err
	}
	isUnique, err := readBool(r)
	if err != nil {
		return catalog.IndexMeta{}, err
	}
	isPrimary, err := readBool(r)
	if err != nil {
		return catalog.IndexMeta{}, err
	}
	return catalog.IndexMeta{ID: id, ColumnIDs: cols, Name: name, IsUnique: isUnique, IsPrimary: isPrimary}, nil
}

// EncodeTuple serializes a tuple for the Tuple family payload: a count,
// then each column id followed by its encoded value.
func EncodeTuple(columns []uint32, values []catalog.Value) []byte {
	var buf bytes.Buffer
	buf.Write(EncodeUint32(uint32(len(values))))
	for i, v := range values {
		buf.Write(EncodeUint32(columns[i]))
		writeBytes(&buf, EncodeValue(v))
	}
	return buf.Bytes()
}

func DecodeTuple(b []byte) (columns []uint32, values []catalog.Value, err error) {
	r := bytes.NewReader(b)
	n, err := readUint32(r)
	if err != nil {
		return nil, nil, err
	}
	columns = make([]uint32, 0, n)
	values = make([]catalog.Value, 0, n)
	for i := uint32(0); i < n; i++ {
		c, err := readUint32(r)
		if err != nil {
			return nil, nil, err
		}
		raw, err := readBytes(r)
		if err != nil {
			return nil, nil, err
		}
		v, _, err := DecodeValue(raw)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, c)
		values = append(values, v)
	}
	return columns, values, nil
}

// EncodeTupleIDs serializes a list of TupleId values (the payload of an
// Idx key, which may map to more than one row for a non-unique index).
func EncodeTupleIDs(ids []catalog.Value) []byte {
	var buf bytes.Buffer
	buf.Write(EncodeUint32(uint32(len(ids))))
	for _, id := range ids {
		writeBytes(&buf, EncodeValue(id))
	}
	return buf.Bytes()
}

func DecodeTupleIDs(b []byte) ([]catalog.Value, error) {
	r := bytes.NewReader(b)
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Value, 0, n)
	for i := uint32(0); i < n; i++ {
		raw, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		v, _, err := DecodeValue(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// --- small binary helpers ---------------------------------------------------

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	buf.Write(EncodeUint32(uint32(len(b))))
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil && n > 0 {
		return nil, fmt.Errorf("%w: truncated byte string: %v", ErrDecode, err)
	}
	return buf, nil
}

func readString(r *bytes.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	buf := make([]byte, 4)
	if _, err := r.Read(buf); err != nil {
		return 0, fmt.Errorf("%w: truncated uint32: %v", ErrDecode, err)
	}
	return DecodeUint32(buf)
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, fmt.Errorf("%w: truncated bool: %v", ErrDecode, err)
	}
	return b == 1, nil
}
