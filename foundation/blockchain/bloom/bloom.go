// Package bloom implements a bloom filter that provides fast negative
// membership checks over transaction identities.
package bloom

import (
	"crypto/sha256"
	"encoding/binary"
	"math/bits"
)

// Filter represents a bloom filter. Items added to the filter are always
// reported as possibly present, items never added are usually reported as
// absent. A positive answer must be confirmed by other means, a negative
// answer is final.
type Filter struct {
	bits      []byte
	mBits     uint
	hashCount uint
}

// New constructs a filter with the specified number of bits and hash probes
// per item. Both values must be greater than zero.
func New(mBits uint, hashCount uint) *Filter {
	return &Filter{
		bits:      make([]byte, (mBits+7)/8),
		mBits:     mBits,
		hashCount: hashCount,
	}
}

// Add sets the probe bits for the specified item.
func (f *Filter) Add(item []byte) {
	for _, pos := range f.positions(item) {
		f.bits[pos/8] |= 1 << (pos % 8)
	}
}

// MightContain reports whether all probe bits for the specified item are
// set. A false result means the item was never added.
func (f *Filter) MightContain(item []byte) bool {
	for _, pos := range f.positions(item) {
		if f.bits[pos/8]&(1<<(pos%8)) == 0 {
			return false
		}
	}

	return true
}

// MBits returns the configured bit array length.
func (f *Filter) MBits() uint {
	return f.mBits
}

// HashCount returns the configured number of hash probes per item.
func (f *Filter) HashCount() uint {
	return f.hashCount
}

// SetBits returns the number of bits currently set. The ratio of set bits
// to total bits drives the false positive rate.
func (f *Filter) SetBits() uint {
	var count uint
	for _, b := range f.bits {
		count += uint(bits.OnesCount8(b))
	}

	return count
}

// Bits returns a copy of the raw bit array. The bytes, together with the
// filter geometry, are enough to reconstruct the filter elsewhere.
func (f *Filter) Bits() []byte {
	raw := make([]byte, len(f.bits))
	copy(raw, f.bits)

	return raw
}

// FromBits reconstructs a filter from a raw bit array and its geometry.
// Membership checks against the copy answer exactly as the source filter.
func FromBits(raw []byte, mBits uint, hashCount uint) *Filter {
	f := Filter{
		bits:      make([]byte, (mBits+7)/8),
		mBits:     mBits,
		hashCount: hashCount,
	}
	copy(f.bits, raw)

	return &f
}

// =============================================================================

// positions derives the probe bit positions for an item. Each probe hashes
// the item prefixed with the probe number, so the positions are a
// deterministic function of the item bytes alone.
func (f *Filter) positions(item []byte) []uint {
	pos := make([]uint, f.hashCount)

	seeded := make([]byte, 1+len(item))
	copy(seeded[1:], item)

	for i := uint(0); i < f.hashCount; i++ {
		seeded[0] = byte(i)
		sum := sha256.Sum256(seeded)
		pos[i] = uint(binary.BigEndian.Uint64(sum[:8]) % uint64(f.mBits))
	}

	return pos
}
