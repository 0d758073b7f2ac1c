// Package status encodes the opaque activation status blob the server returns
// on each status query.
//
// The blob is a fixed 16 byte layout encrypted under the transport key with a
// zero IV and no padding. Each query produces a fresh plaintext whose
// randomness is not required; the magic header acts as the integrity check.
// Do not introduce a random IV or PKCS7 padding here, the layout is part of
// the wire contract.
package status

import (
	"bytes"

	"code.mfactor.org/golang/pkg/primitives"
)

const (
	// BLOB_LEN is the exact byte length of a status blob, plaintext and ciphertext alike.
	BLOB_LEN = 16
)

// magic is the fixed 4 byte blob header.
var magic = []byte{0xDE, 0xC0, 0xDE, 0xD1}

// Blob holds the decoded fields of an activation status blob.
type Blob struct {
	Status            byte
	CurrentVersion    byte
	UpgradeVersion    byte
	FailedAttempts    byte
	MaxFailedAttempts byte

	// valid records whether the magic header matched during decryption.
	valid bool
}

// Valid reports whether the blob carried the expected magic header.
// Only a Blob returned by Decrypt can report true; a Blob built by the
// caller for Encrypt reports false.
func (self Blob) Valid() bool {
	return self.valid
}

// Encrypt serializes the blob and encrypts it under transportKey.
// The result is exactly 16 bytes.
func (self Blob) Encrypt(transportKey []byte) ([]byte, error) {
	plain := make([]byte, BLOB_LEN)
	copy(plain, magic)
	plain[4] = self.Status
	plain[5] = self.CurrentVersion
	plain[6] = self.UpgradeVersion
	// bytes 7..12 reserved, zero on write
	plain[13] = self.FailedAttempts
	plain[14] = self.MaxFailedAttempts
	// byte 15 reserved, zero

	iv := make([]byte, 16)
	encrypted, err := primitives.AesCbcEncrypt(plain, iv, transportKey, primitives.PaddingNone)
	if nil != err {
		return nil, wrapError(err, "failed blob encryption")
	}
	return encrypted, nil
}

// Decrypt decrypts a 16 byte status blob under transportKey and decodes its fields.
// A wrong magic does not error, it yields a Blob with Valid() == false, so that
// callers can not be distinguished from the outside by their failure mode.
func Decrypt(encrypted, transportKey []byte) (Blob, error) {
	if BLOB_LEN != len(encrypted) {
		return Blob{}, newError("invalid blob length %d, expected %d", len(encrypted), BLOB_LEN)
	}
	iv := make([]byte, 16)
	plain, err := primitives.AesCbcDecrypt(encrypted, iv, transportKey, primitives.PaddingNone)
	if nil != err {
		return Blob{}, wrapError(err, "failed blob decryption")
	}

	rv := Blob{
		Status:            plain[4],
		CurrentVersion:    plain[5],
		UpgradeVersion:    plain[6],
		FailedAttempts:    plain[13],
		MaxFailedAttempts: plain[14],
		valid:             bytes.Equal(magic, plain[:4]),
	}
	return rv, nil
}
