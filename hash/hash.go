// Package hash computes 256-bit hashes of values. Hashes are used as stable,
// order-sensitive fingerprints of symbol names and graphs; they are never
// exposed to the user.
package hash

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spaolacci/murmur3"
)

// Size is the byte size of a Hash.
const Size = 32

// Hash is a 256-bit hash value. The zero value is reserved as a sentinel and
// is never produced by the hash functions.
type Hash [Size]byte

// Zero is an invalid hash.
var Zero = Hash{}

// String returns a hex representation of the hash prefix, for logging.
func (h Hash) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x%02x%02x",
		h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7])
}

// Merge combines two hashes in an order-dependent fashion:
// a.Merge(b) != b.Merge(a) for a != b.
func (h Hash) Merge(other Hash) Hash {
	var buf [2 * Size]byte
	copy(buf[:], h[:])
	copy(buf[Size:], other[:])
	return Bytes(buf[:])
}

// Add combines two hashes commutatively: a.Add(b) == b.Add(a).  The zero hash
// is the identity element.
func (h Hash) Add(other Hash) Hash {
	var r Hash
	var carry uint16
	for i := Size - 1; i >= 0; i-- {
		s := uint16(h[i]) + uint16(other[i]) + carry
		r[i] = byte(s)
		carry = s >> 8
	}
	return r
}

// Bytes computes the hash of the given bytes.
func Bytes(data []byte) Hash {
	var h Hash
	h0, h1 := murmur3.Sum128WithSeed(data, 0x9a4e)
	h2, h3 := murmur3.Sum128WithSeed(data, 0x71c3)
	binary.LittleEndian.PutUint64(h[0:], h0)
	binary.LittleEndian.PutUint64(h[8:], h1)
	binary.LittleEndian.PutUint64(h[16:], h2)
	binary.LittleEndian.PutUint64(h[24:], h3)
	h[0] |= 1 // keep the result distinct from the zero sentinel
	return h
}

// String computes the hash of a string.
func String(data string) Hash {
	return Bytes([]byte(data))
}

// Int computes the hash of an integer.
func Int(v int64) Hash {
	var buf [9]byte
	buf[0] = 'i'
	binary.LittleEndian.PutUint64(buf[1:], uint64(v))
	return Bytes(buf[:])
}

// Float computes the hash of a float.
func Float(v float64) Hash {
	var buf [9]byte
	buf[0] = 'f'
	binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v))
	return Bytes(buf[:])
}

// Bool computes the hash of a boolean.
func Bool(v bool) Hash {
	if v {
		return Bytes([]byte{'b', 1})
	}
	return Bytes([]byte{'b', 0})
}
