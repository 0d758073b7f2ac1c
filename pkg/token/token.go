// Package token implements the short-lived authentication tokens of the
// MFactor protocol, used for read-only request authentication after an
// activation exists.
package token

import (
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/google/uuid"

	"code.mfactor.org/golang/pkg/primitives"
)

const (
	// NONCE_LEN is the byte length of a token nonce.
	NONCE_LEN = 16

	// SECRET_LEN is the byte length of a token secret.
	SECRET_LEN = 16

	// digestSeparator joins nonce and timestamp in the digest input.
	digestSeparator = byte('&')
)

// Token binds a public identifier to the secret shared by client and server.
// Factors records the factor set that authenticated the issuing request.
type Token struct {
	Id      uuid.UUID
	Secret  []byte
	Factors string
}

// NewToken returns a Token with a fresh UUIDv4 identifier and random secret.
func NewToken(provider primitives.Provider, factors string) (Token, error) {
	secret, err := provider.RandomBytes(SECRET_LEN)
	if nil != err {
		return Token{}, wrapError(err, "failed generating token secret")
	}
	return Token{Id: uuid.New(), Secret: secret, Factors: factors}, nil
}

// Generator produces the per-request token authentication material.
// Now is injectable for tests, it defaults to time.Now.
type Generator struct {
	Provider primitives.Provider
	Now      func() time.Time
}

// GenerateNonce returns 16 random bytes.
func (self Generator) GenerateNonce() ([]byte, error) {
	nonce, err := self.Provider.RandomBytes(NONCE_LEN)
	return nonce, wrapError(err, "failed generating token nonce") // nil if err is nil...
}

// GenerateTimestamp returns the current Unix time in milliseconds rendered
// as ASCII decimal bytes.
func (self Generator) GenerateTimestamp() []byte {
	now := self.Now
	if nil == now {
		now = time.Now
	}
	return []byte(strconv.FormatInt(now().UnixMilli(), 10))
}

// ComputeDigest returns HMAC-SHA-256(secret, nonce || '&' || timestamp).
func ComputeDigest(nonce, timestamp, secret []byte) ([]byte, error) {
	if NONCE_LEN != len(nonce) {
		return nil, newError("invalid nonce length %d, expected %d", len(nonce), NONCE_LEN)
	}
	if 0 == len(timestamp) {
		return nil, newError("empty timestamp")
	}
	data := make([]byte, 0, len(nonce)+1+len(timestamp))
	data = append(data, nonce...)
	data = append(data, digestSeparator)
	data = append(data, timestamp...)
	return primitives.HmacSha256(secret, data), nil
}

// VerifyDigest recomputes the token digest and compares it to candidate in
// constant time. It errors only on invalid inputs.
func VerifyDigest(candidate, nonce, timestamp, secret []byte) (bool, error) {
	computed, err := ComputeDigest(nonce, timestamp, secret)
	if nil != err {
		return false, err
	}
	return 1 == subtle.ConstantTimeCompare(candidate, computed), nil
}
