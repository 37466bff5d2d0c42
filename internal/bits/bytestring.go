package bits

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ByteString is an immutable sequence of bytes. It is comparable with == and can be
// used as a map key; two values are equal when their contents are.
type ByteString struct {
	s string
}

// NewByteString copies b into a new ByteString.
func NewByteString(b []byte) ByteString {
	return ByteString{s: string(b)}
}

// ParseHexByteString parses a hexadecimal representation such as the one returned by
// String. Upper and lower case digits are accepted.
func ParseHexByteString(h string) (ByteString, error) {
	if len(h)%2 != 0 {
		return ByteString{}, fmt.Errorf("odd hexadecimal length %d", len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return ByteString{}, fmt.Errorf("invalid hexadecimal string: %w", err)
	}
	return NewByteString(b), nil
}

// MustParseHex is like ParseHexByteString but panics on malformed input.
func MustParseHex(h string) ByteString {
	bs, err := ParseHexByteString(h)
	if err != nil {
		panic(err)
	}
	return bs
}

// Size returns the number of bytes.
func (bs ByteString) Size() int {
	return len(bs.s)
}

// ByteAt returns the byte at index.
func (bs ByteString) ByteAt(index int) byte {
	return bs.s[index]
}

// BytesInRange returns the bytes in [from, to) as a big-endian unsigned integer.
// The range may span at most 8 bytes.
func (bs ByteString) BytesInRange(from, to int) uint64 {
	if from < 0 || to > len(bs.s) || from > to {
		panic(fmt.Sprintf("bits: byte range [%d, %d) out of bounds for size %d", from, to, len(bs.s)))
	}
	if to-from > 8 {
		panic(fmt.Sprintf("bits: byte range [%d, %d) wider than 8 bytes", from, to))
	}

	var v uint64
	for i := from; i < to; i++ {
		v = v<<8 | uint64(bs.s[i])
	}
	return v
}

// Bytes returns a copy of the contents.
func (bs ByteString) Bytes() []byte {
	return []byte(bs.s)
}

// String returns the contents as uppercase hexadecimal digits.
func (bs ByteString) String() string {
	return strings.ToUpper(hex.EncodeToString([]byte(bs.s)))
}
