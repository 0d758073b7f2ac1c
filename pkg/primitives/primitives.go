// Package primitives wraps the platform cryptographic provider behind the named
// operations of the MFactor protocol: SHA-256, HMAC-SHA-256, AES-128-CBC,
// PBKDF2-HMAC-SHA-1, secp256r1 ECDH/ECDSA and a strong random source.
//
// All operations are pure and reentrant. The random source is the only
// injectable capability, see Provider.
package primitives

import (
	"crypto/rand"
	"io"
)

const (
	// SECRET_KEY_LEN is the byte length of every symmetric key of the protocol.
	SECRET_KEY_LEN = 16

	// SHARED_SECRET_LEN is the byte length of the raw ECDH output.
	SHARED_SECRET_LEN = 32
)

// Provider groups the injectable capabilities of the primitive layer.
// The zero value uses the platform crypto/rand source.
type Provider struct {
	Rng io.Reader
}

// rng returns the configured random source or the platform default.
func (self Provider) rng() io.Reader {
	if nil == self.Rng {
		return rand.Reader
	}
	return self.Rng
}

// RandomBytes returns n cryptographically strong random bytes.
// It errors if the random source can not deliver n bytes.
func (self Provider) RandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, newFlagError(ErrInvalidInput, "negative byte count %d", n)
	}
	rv := make([]byte, n)
	_, err := io.ReadFull(self.rng(), rv)
	if nil != err {
		return nil, wrapFlagError(err, ErrCryptoFailure, "failed reading %d random bytes", n)
	}
	return rv, nil
}

// XorFold reduces a 32 byte buffer to 16 bytes, xor-ing the first half with the second.
// It errors if b is not 32 bytes.
func XorFold(b []byte) ([]byte, error) {
	if SHARED_SECRET_LEN != len(b) {
		return nil, newFlagError(ErrInvalidInput, "invalid buffer length %d, expected %d", len(b), SHARED_SECRET_LEN)
	}
	rv := make([]byte, SECRET_KEY_LEN)
	for i := range rv {
		rv[i] = b[i] ^ b[i+SECRET_KEY_LEN]
	}
	return rv, nil
}
