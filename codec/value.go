package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/k0kubun/kipsql/catalog"
)

// Value tags, written as the first byte of an encoded value so Decode can
// recover the dynamic type without an external type hint.
const (
	tagNull byte = iota
	tagInt64
	tagBool
	tagVarchar
)

// EncodeValue renders a catalog.Value as an order-preserving byte string:
// signed integers use a sign-flipped big-endian encoding so two's-complement
// ordering matches byte ordering, and strings are escaped so that no
// encoded string is a byte-for-byte prefix of another (§4.1).
func EncodeValue(v catalog.Value) []byte {
	if v.IsNull() {
		return []byte{tagNull}
	}
	switch v.Type() {
	case catalog.Integer:
		buf := make([]byte, 9)
		buf[0] = tagInt64
		// Flip the sign bit so that, compared as unsigned big-endian bytes,
		// MinInt64 sorts first and MaxInt64 sorts last.
		binary.BigEndian.PutUint64(buf[1:], uint64(v.Int64())^0x8000000000000000)
		return buf
	case catalog.Boolean:
		b := byte(0)
		if v.Bool() {
			b = 1
		}
		return []byte{tagBool, b}
	case catalog.Varchar:
		return append([]byte{tagVarchar}, escapeString(v.Varchar())...)
	default:
		return []byte{tagNull}
	}
}

// DecodeValue reads one encoded value from the front of b and returns it
// along with the number of bytes consumed.
func DecodeValue(b []byte) (catalog.Value, int, error) {
	if len(b) == 0 {
		return catalog.Value{}, 0, fmt.Errorf("%w: empty value stream", ErrDecode)
	}
	switch b[0] {
	case tagNull:
		return catalog.Null(), 1, nil
	case tagInt64:
		if len(b) < 9 {
			return catalog.Value{}, 0, fmt.Errorf("%w: truncated int64", ErrDecode)
		}
		u := binary.BigEndian.Uint64(b[1:9])
		i := int64(u ^ 0x8000000000000000)
		return catalog.NewInt64(i), 9, nil
	case tagBool:
		if len(b) < 2 {
			return catalog.Value{}, 0, fmt.Errorf("%w: truncated bool", ErrDecode)
		}
		return catalog.NewBool(b[1] == 1), 2, nil
	case tagVarchar:
		s, n, err := unescapeString(b[1:])
		if err != nil {
			return catalog.Value{}, 0, err
		}
		return catalog.NewVarchar(s), n + 1, nil
	default:
		return catalog.Value{}, 0, fmt.Errorf("%w: unknown value tag %d", ErrDecode, b[0])
	}
}

// escapeString renders s so that 0x00 bytes (which would otherwise make one
// encoded string a prefix of another, e.g. "a" vs "aa") are escaped to
// 0x00 0x01, terminated by 0x00 0x00. This is the standard
// memcomparable-string trick: "a" encodes to 61 00 00, "aa" to 61 61 00 00,
// and 61 00 00 < 61 61 00 00 byte-for-byte.
func escapeString(s string) []byte {
	out := make([]byte, 0, len(s)+2)
	for i := 0; i < len(s); i++ {
		if s[i] == 0x00 {
			out = append(out, 0x00, 0x01)
		} else {
			out = append(out, s[i])
		}
	}
	return append(out, 0x00, 0x00)
}

// unescapeString is the inverse of escapeString; it returns the decoded
// string and the number of encoded bytes consumed (including the
// terminator).
func unescapeString(b []byte) (string, int, error) {
	out := make([]byte, 0, len(b))
	i := 0
	for i < len(b) {
		if b[i] == 0x00 {
			if i+1 >= len(b) {
				return "", 0, fmt.Errorf("%w: truncated varchar", ErrDecode)
			}
			switch b[i+1] {
			case 0x00:
				return string(out), i + 2, nil
			case 0x01:
				out = append(out, 0x00)
				i += 2
				continue
			default:
				return "", 0, fmt.Errorf("%w: invalid varchar escape", ErrDecode)
			}
		}
		out = append(out, b[i])
		i++
	}
	return "", 0, fmt.Errorf("%w: unterminated varchar", ErrDecode)
}

// EncodeUint32 renders a dense id (column id, index id) as a fixed-width
// big-endian value, order-preserving by construction.
func EncodeUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

func DecodeUint32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("%w: truncated uint32", ErrDecode)
	}
	return binary.BigEndian.Uint32(b), nil
}
