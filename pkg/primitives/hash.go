package primitives

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF_ITERATIONS is the fixed PBKDF2 iteration count of the protocol.
	PBKDF_ITERATIONS = 10_000
)

// Sha256 returns the SHA-256 digest of data.
func Sha256(data []byte) []byte {
	rv := sha256.Sum256(data)
	return rv[:]
}

// HmacSha256 returns the 32 byte HMAC-SHA-256 of data under key.
func HmacSha256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// Pbkdf2Sha1 derives a 16 byte key from an utf8 password and salt
// using PBKDF2-HMAC-SHA-1 with the protocol iteration count.
func Pbkdf2Sha1(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, PBKDF_ITERATIONS, SECRET_KEY_LEN, sha1.New)
}
