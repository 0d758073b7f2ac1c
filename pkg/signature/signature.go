// Package signature computes and verifies the multi-factor request signatures
// of the MFactor protocol.
//
// A signature is a dash-joined list of zero-padded decimal components, one per
// authentication factor. The caller supplies the already formatted signature
// base string; this package owns the HMAC fan-out, the decimal folding and the
// constant-time verification.
package signature

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"strings"

	"code.mfactor.org/golang/pkg/counter"
	"code.mfactor.org/golang/pkg/primitives"
)

const (
	// COMPONENT_DIGITS is the number of decimal digits per factor component.
	COMPONENT_DIGITS = 8

	// MAX_KEYS caps the factor key list, possession / knowledge / biometry.
	MAX_KEYS = 3

	componentModulo = uint32(100_000_000) // 10^COMPONENT_DIGITS
)

// Engine computes and verifies multi-factor signatures.
//
// The zero value rejects legacy numeric counters in Compute and Verify;
// deployments that still have v2 devices in the field set AllowLegacy.
// VerifyWindow works on raw counter materializations and does not consult
// AllowLegacy.
type Engine struct {
	AllowLegacy bool
}

// Compute returns the signature of data under the ordered factor key list and ctr.
// keys holds 1 to 3 signature keys in the fixed possession, knowledge, biometry
// order.
func (self Engine) Compute(data []byte, keys [][]byte, ctr counter.Counter) (string, error) {
	if counter.FlavorNumeric == ctr.Flavor() && !self.AllowLegacy {
		return "", newFlagError(ErrLegacyDisabled, "numeric counter rejected, set AllowLegacy to accept v2 devices")
	}
	return self.computeForCtrBytes(data, keys, ctr.Bytes())
}

// Verify recomputes the signature of data and compares it to candidate in constant time.
// It errors only on invalid inputs; a mismatching candidate yields (false, nil).
func (self Engine) Verify(candidate string, data []byte, keys [][]byte, ctr counter.Counter) (bool, error) {
	computed, err := self.Compute(data, keys, ctr)
	if nil != err {
		return false, err
	}
	return 1 == subtle.ConstantTimeCompare([]byte(candidate), []byte(computed)), nil
}

// VerifyWindow scans a look-ahead window of counter materializations and
// reports the offset at which candidate matches, or -1. The server
// collaborator advances its stored counter by the returned offset + 1 on
// acceptance, which resynchronizes with a device that moved ahead.
//
// Every window entry is checked with a constant-time comparison; the scan
// deliberately does not stop early on input shape, only on match.
func (self Engine) VerifyWindow(candidate string, data []byte, keys [][]byte, window [][]byte) (int, error) {
	for offset, ctrBytes := range window {
		computed, err := self.computeForCtrBytes(data, keys, ctrBytes)
		if nil != err {
			return -1, err
		}
		if 1 == subtle.ConstantTimeCompare([]byte(candidate), []byte(computed)) {
			return offset, nil
		}
	}
	return -1, nil
}

// computeForCtrBytes runs the reference signature algorithm.
//
// The inner chaining reuses keys[j+1] while the outer loop is zero-based.
// This asymmetry is part of the wire contract, changing it breaks
// interoperability with every deployed device.
func (self Engine) computeForCtrBytes(data []byte, keys [][]byte, ctrBytes []byte) (string, error) {
	if 0 == len(keys) || len(keys) > MAX_KEYS {
		return "", newFlagError(ErrInvalidKeyCount, "invalid key count %d, expected 1..%d", len(keys), MAX_KEYS)
	}
	if counter.CTR_LEN != len(ctrBytes) {
		return "", newFlagError(ErrInvalidCounter, "invalid counter length %d, expected %d", len(ctrBytes), counter.CTR_LEN)
	}
	for pos, key := range keys {
		if primitives.SECRET_KEY_LEN != len(key) {
			return "", newError("invalid signature key #%d length %d", pos, len(key))
		}
	}

	components := make([]string, len(keys))
	for i := range keys {
		derived := primitives.HmacSha256(keys[i], ctrBytes)
		for j := 0; j < i; j++ {
			inner := primitives.HmacSha256(keys[j+1], ctrBytes)
			derived = primitives.HmacSha256(inner, derived)
		}
		mac := primitives.HmacSha256(derived, data)

		idx := len(mac) - 4
		number := (binary.BigEndian.Uint32(mac[idx:]) & 0x7FFFFFFF) % componentModulo
		components[i] = fmt.Sprintf("%0*d", COMPONENT_DIGITS, number)
	}

	return strings.Join(components, "-"), nil
}
