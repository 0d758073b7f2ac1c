package session

import (
	"crypto/rand"
	"encoding/binary"
)

// Sid is a session identifier carrying its creation pseudo time.
type Sid struct {
	t     int64
	nonce [16]byte
}

// T returns the Sid creation pseudo time.
func (self Sid) T() int64 {
	return self.t
}

// Bytes returns the wire form of the Sid, 8 big-endian pseudo time bytes
// followed by the 16 nonce bytes.
func (self Sid) Bytes() []byte {
	rv := make([]byte, 24)
	binary.BigEndian.PutUint64(rv, uint64(self.t))
	copy(rv[8:], self.nonce[:])
	return rv
}

// ParseSid rebuilds a Sid from its wire form.
func ParseSid(b []byte) (Sid, error) {
	if 24 != len(b) {
		return Sid{}, newError("invalid sid length %d, expected 24", len(b))
	}
	rv := Sid{t: int64(binary.BigEndian.Uint64(b))}
	copy(rv.nonce[:], b[8:])
	return rv, nil
}

// SidFactory issues Sid keyed to a Clock.
// MaxAge is the number of clock ticks a Sid stays acceptable, at least 1.
type SidFactory struct {
	Clock  *Clock
	MaxAge int64
}

// New returns a fresh random Sid stamped with the current pseudo time.
func (self SidFactory) New() Sid {
	rv := Sid{t: self.Clock.T()}
	rand.Read(rv.nonce[:]) // rand.Read can not fail, it panics instead
	return rv
}

// Check errors if key is from the future or older than MaxAge ticks.
func (self SidFactory) Check(key Sid) error {
	now := self.Clock.T()
	maxAge := self.MaxAge
	if maxAge < 1 {
		maxAge = 1
	}
	if key.t > now {
		return newError("sid pseudo time %d is in the future", key.t)
	}
	if now-key.t > maxAge {
		return newError("sid expired, age %d > %d", now-key.t, maxAge)
	}
	return nil
}

var _ KeyFactory[Sid] = SidFactory{}
