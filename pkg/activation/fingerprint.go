package activation

import (
	"crypto/ecdh"
	"encoding/binary"
	"fmt"

	"code.mfactor.org/golang/pkg/primitives"
)

const (
	// FINGERPRINT_DIGITS is the decimal width of the device key fingerprint.
	FINGERPRINT_DIGITS = 8

	fingerprintModulo = uint32(100_000_000) // 10^FINGERPRINT_DIGITS
)

// Fingerprint renders the device public key as a short decimal string.
// Both sides display it during the ceremony so the user can compare them
// and detect a swapped key.
func Fingerprint(devicePub *ecdh.PublicKey) (string, error) {
	if nil == devicePub {
		return "", newError("nil device public key")
	}
	return fingerprintOf(devicePub.Bytes()), nil
}

// fingerprintOf folds the SHA-256 of the encoded point into decimal digits,
// with the same masking as a signature component.
func fingerprintOf(encodedPoint []byte) string {
	h := primitives.Sha256(encodedPoint)
	idx := len(h) - 4
	number := (binary.BigEndian.Uint32(h[idx:]) & 0x7FFFFFFF) % fingerprintModulo
	return fmt.Sprintf("%0*d", FINGERPRINT_DIGITS, number)
}
