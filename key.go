package triepack

import (
	"bytes"
	"encoding/binary"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key is a byte-slice key fed to the Builder. Keys are compared
// byte-wise; the Builder requires them in ascending lexicographic order
// with a trailing sentinel byte (see WithSentinel) so that no key is a
// proper prefix of another.
//
// Integer encoding policy
// -----------------------
// The integer constructors produce an 8-byte big-endian representation;
// the signed ones shift the value by 1<<63 first. Lexicographic
// byte-wise comparison of Keys from the same constructor therefore
// matches numeric ordering. Sorting
// numeric keys before feeding them to the Builder therefore needs no
// special casing.
type Key []byte

// Sentinel is the conventional terminator byte appended to keys so that
// no key is a proper prefix of another. Any byte that does not occur
// inside the keys works; callers that use a different one pass it to
// WithSentinel explicitly.
const Sentinel byte = 0x00

// FromBytes returns a copy of the provided byte slice as a Key. If b is
// nil this returns an empty (zero-length) Key (not nil).
func FromBytes(b []byte) Key {
	if b == nil {
		return Key{}
	}
	kb := make([]byte, len(b))
	copy(kb, b)
	return Key(kb)
}

// FromString returns a Key produced from the provided string after
// normalizing it to Unicode NFC. The resulting Key contains the UTF-8
// encoding of the normalized string; equal-looking strings thus map to
// the same Key regardless of their composition form.
func FromString(s string) Key {
	s = norm.NFC.String(s)
	return FromBytes([]byte(s))
}

// FromUint64 converts a uint64 to an 8-byte big-endian Key (MSB first).
func FromUint64(u uint64) Key {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], u)
	return FromBytes(b[:])
}

// FromInt64 converts an int64 to an 8-byte big-endian Key. The value is
// shifted by 1<<63 so that negative values compare before positive ones.
func FromInt64(i int64) Key {
	var b [8]byte
	const offset = uint64(1) << 63
	binary.BigEndian.PutUint64(b[:], uint64(i)+offset)
	return FromBytes(b[:])
}

// FromInt converts an int to an 8-byte big-endian Key, shifted like
// FromInt64.
func FromInt(i int) Key { return FromInt64(int64(i)) }

// WithSentinel returns a copy of the Key with the sentinel byte s
// appended. If the Key already ends in s it is returned unchanged.
func (k Key) WithSentinel(s byte) Key {
	if n := len(k); n > 0 && k[n-1] == s {
		return k
	}
	kb := make([]byte, len(k)+1)
	copy(kb, k)
	kb[len(k)] = s
	return Key(kb)
}

// Bytes returns a copy of the Key as a byte slice.
func (k Key) Bytes() []byte {
	if k == nil {
		return nil
	}
	b := make([]byte, len(k))
	copy(b, k)
	return b
}

// Clone returns an independent copy of the Key. If k is nil, Clone
// returns nil.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	kb := make([]byte, len(k))
	copy(kb, k)
	return Key(kb)
}

// String returns the Key as uppercase hex tuples per byte, separated by
// commas and surrounded by `[]` (e.g. `[6B,6F,00]`).
func (k Key) String() string {
	if len(k) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	const hex = "0123456789ABCDEF"
	for i, b := range k {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteByte(hex[b>>4])
		sb.WriteByte(hex[b&0x0F])
	}
	sb.WriteByte(']')
	return sb.String()
}

// Equal reports whether k and other have the same contents.
func (k Key) Equal(other Key) bool {
	return bytes.Equal(k, other)
}

// LessThan reports whether k is lexicographically less than other.
func (k Key) LessThan(other Key) bool {
	return bytes.Compare(k, other) < 0
}

// IsEmpty returns whether the Key is empty or nil.
func (k Key) IsEmpty() bool { return len(k) == 0 }

// CommonPrefixLen returns the number of leading bytes k and other share.
func (k Key) CommonPrefixLen(other Key) int {
	n := min(len(k), len(other))
	for i := range n {
		if k[i] != other[i] {
			return i
		}
	}
	return n
}
