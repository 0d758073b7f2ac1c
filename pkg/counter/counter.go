// Package counter maintains the signing counter of an activation.
//
// Two flavors co-exist on the wire: the legacy numeric counter advancing by
// one per accepted signature, and the current hash-chain counter advancing by
// one SHA-256 step. A Counter is an immutable value, Advance returns the
// successor; serializing read & advance per activation is the caller's job.
package counter

import (
	"encoding/binary"

	"code.mfactor.org/golang/pkg/primitives"
)

const (
	// CTR_LEN is the byte length of every counter materialization.
	CTR_LEN = 16
)

// Flavor discriminates the two counter families.
type Flavor int

const (
	// FlavorNumeric is the legacy 64 bit counter.
	//
	// Deprecated: new activations use FlavorHashChain. Kept for wire
	// compatibility with already deployed devices.
	FlavorNumeric = Flavor(iota)

	// FlavorHashChain is the rolling 16 byte hash-chain counter.
	FlavorHashChain
)

// Counter is a tagged counter value, either numeric or hash-chain.
type Counter struct {
	flavor  Flavor
	numeric uint64
	chain   [CTR_LEN]byte
}

// NewNumeric returns a numeric Counter starting at value.
//
// Deprecated: new activations use NewHashChain. Kept for wire compatibility
// with already deployed devices.
func NewNumeric(value uint64) Counter {
	return Counter{flavor: FlavorNumeric, numeric: value}
}

// NewHashChain returns a hash-chain Counter initialized with seed.
// It errors if seed is not 16 bytes.
func NewHashChain(seed []byte) (Counter, error) {
	if CTR_LEN != len(seed) {
		return Counter{}, newError("invalid seed length %d, expected %d", len(seed), CTR_LEN)
	}
	rv := Counter{flavor: FlavorHashChain}
	copy(rv.chain[:], seed)
	return rv, nil
}

// Flavor returns the Counter flavor.
func (self Counter) Flavor() Flavor {
	return self.flavor
}

// Numeric returns the numeric value of a FlavorNumeric Counter.
// Stores use it to persist the counter; it is 0 for hash-chain counters.
func (self Counter) Numeric() uint64 {
	return self.numeric
}

// Bytes returns the 16 byte signing materialization of the Counter.
// Numeric counters render as 8 zero bytes followed by the big-endian value,
// hash-chain counters render as their raw 16 bytes.
func (self Counter) Bytes() []byte {
	rv := make([]byte, CTR_LEN)
	switch self.flavor {
	case FlavorNumeric:
		binary.BigEndian.PutUint64(rv[8:], self.numeric)
	case FlavorHashChain:
		copy(rv, self.chain[:])
	}
	return rv
}

// Advance returns the Counter successor: value+1 for numeric counters,
// truncate16(SHA-256(ctr)) for hash-chain counters.
func (self Counter) Advance() Counter {
	switch self.flavor {
	case FlavorNumeric:
		self.numeric++
	case FlavorHashChain:
		h := primitives.Sha256(self.chain[:])
		copy(self.chain[:], h[:CTR_LEN])
	}
	return self
}

// AdvanceBy returns the Counter advanced n steps.
// The server collaborator uses it to resynchronize with a device that moved ahead.
func (self Counter) AdvanceBy(n int) Counter {
	rv := self
	for i := 0; i < n; i++ {
		rv = rv.Advance()
	}
	return rv
}

// LookAhead returns the materializations of the next w counter states,
// starting with the current one. It does not mutate the Counter; the server
// collaborator scans the window during signature verification.
func (self Counter) LookAhead(w int) [][]byte {
	rv := make([][]byte, 0, w)
	cur := self
	for i := 0; i < w; i++ {
		rv = append(rv, cur.Bytes())
		cur = cur.Advance()
	}
	return rv
}
