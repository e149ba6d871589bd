package codec

import "errors"

var (
	// ErrEncode is returned when a value's declared type disagrees with the
	// supplied data.
	ErrEncode = errors.New("codec: encode error")
	// ErrDecode is returned when a byte stream is truncated or malformed.
	ErrDecode = errors.New("codec: decode error")
)
