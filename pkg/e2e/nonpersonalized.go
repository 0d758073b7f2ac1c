// Package e2e implements the non-personalized end-to-end encryption channel
// used before an activation exists.
//
// The channel is encrypt-then-MAC: a fresh ad-hoc index and mac index derive
// one-shot encryption and MAC keys from the session secret, the payload is
// AES-CBC encrypted under a random nonce and authenticated with HMAC-SHA-256.
//
// Deprecated: the channel belongs to the legacy protocol family, current
// deployments negotiate an ECIES channel instead. Kept for wire compatibility
// with already deployed devices.
package e2e

import (
	"bytes"
	"crypto/subtle"

	"code.mfactor.org/golang/pkg/keyfactory"
	"code.mfactor.org/golang/pkg/primitives"
)

const (
	// INDEX_LEN is the byte length of session, ad-hoc and mac indices.
	INDEX_LEN = 16

	// NONCE_LEN is the byte length of the encryption nonce.
	NONCE_LEN = 16

	// maxDrawAttempts bounds the distinct-index retry loop, it defends
	// against a stuck random source.
	maxDrawAttempts = 1000
)

// Message is a one-shot encrypted payload with the material needed to decrypt it.
// Binary fields travel Base64-standard on the JSON wire.
type Message struct {
	ApplicationKey     []byte `json:"applicationKey" cbor:"1,keyasint"`
	SessionIndex       []byte `json:"sessionIndex" cbor:"2,keyasint"`
	AdHocIndex         []byte `json:"adHocIndex" cbor:"3,keyasint"`
	MacIndex           []byte `json:"macIndex" cbor:"4,keyasint"`
	Nonce              []byte `json:"nonce" cbor:"5,keyasint"`
	EphemeralPublicKey []byte `json:"ephemeralPublicKey" cbor:"6,keyasint"`
	EncryptedData      []byte `json:"encryptedData" cbor:"7,keyasint"`
	Mac                []byte `json:"mac" cbor:"8,keyasint"`
}

// Encryptor encrypts and decrypts non-personalized messages for one session.
type Encryptor struct {
	ApplicationKey          []byte
	SessionIndex            []byte
	SessionRelatedSecretKey []byte
	EphemeralPublicKey      []byte

	Provider primitives.Provider
	facto    keyfactory.Factory
}

// Encrypt produces a Message carrying originalData.
func (self Encryptor) Encrypt(originalData []byte) (Message, error) {
	adHocIndex, err := self.Provider.RandomBytes(INDEX_LEN)
	if nil != err {
		return Message{}, wrapError(err, "failed generating adHocIndex")
	}
	macIndex, err := self.drawDistinctIndex(adHocIndex)
	if nil != err {
		return Message{}, wrapError(err, "failed generating macIndex")
	}
	nonce, err := self.Provider.RandomBytes(NONCE_LEN)
	if nil != err {
		return Message{}, wrapError(err, "failed generating nonce")
	}

	encKey, macKey, err := self.deriveKeys(adHocIndex, macIndex)
	if nil != err {
		return Message{}, err
	}

	encryptedData, err := primitives.AesCbcEncrypt(originalData, nonce, encKey, primitives.PaddingPKCS7)
	if nil != err {
		return Message{}, wrapError(err, "failed payload encryption")
	}
	mac := primitives.HmacSha256(macKey, encryptedData)

	rv := Message{
		ApplicationKey:     self.ApplicationKey,
		SessionIndex:       self.SessionIndex,
		AdHocIndex:         adHocIndex,
		MacIndex:           macIndex,
		Nonce:              nonce,
		EphemeralPublicKey: self.EphemeralPublicKey,
		EncryptedData:      encryptedData,
		Mac:                mac,
	}
	return rv, nil
}

// Decrypt validates message and returns the original payload.
// Every rejection surfaces as ErrInvalidMessage.
func (self Encryptor) Decrypt(message Message) ([]byte, error) {
	if INDEX_LEN != len(message.AdHocIndex) || INDEX_LEN != len(message.MacIndex) {
		return nil, newFlagError(ErrInvalidMessage, "invalid index")
	}
	if NONCE_LEN != len(message.Nonce) {
		return nil, newFlagError(ErrInvalidMessage, "invalid nonce")
	}
	if bytes.Equal(message.AdHocIndex, message.MacIndex) {
		return nil, newFlagError(ErrInvalidMessage, "invalid index")
	}

	encKey, macKey, err := self.deriveKeys(message.AdHocIndex, message.MacIndex)
	if nil != err {
		return nil, err
	}

	computedMac := primitives.HmacSha256(macKey, message.EncryptedData)
	if 1 != subtle.ConstantTimeCompare(message.Mac, computedMac) {
		return nil, newFlagError(ErrInvalidMessage, "invalid mac")
	}

	plain, err := primitives.AesCbcDecrypt(message.EncryptedData, message.Nonce, encKey, primitives.PaddingPKCS7)
	if nil != err {
		return nil, newFlagError(ErrInvalidMessage, "invalid payload")
	}
	return plain, nil
}

// drawDistinctIndex draws 16 random bytes distinct from other, retrying within
// the attempt bound.
func (self Encryptor) drawDistinctIndex(other []byte) ([]byte, error) {
	for attempt := 0; attempt < maxDrawAttempts; attempt++ {
		index, err := self.Provider.RandomBytes(INDEX_LEN)
		if nil != err {
			return nil, err
		}
		if !bytes.Equal(other, index) {
			return index, nil
		}
	}
	return nil, newFlagError(primitives.ErrRngExhaustion, "random source kept returning the same index")
}

func (self Encryptor) deriveKeys(adHocIndex, macIndex []byte) ([]byte, []byte, error) {
	encKey, err := self.facto.DeriveHmac(self.SessionRelatedSecretKey, adHocIndex)
	if nil != err {
		return nil, nil, wrapError(err, "failed deriving encryption key")
	}
	macKey, err := self.facto.DeriveHmac(self.SessionRelatedSecretKey, macIndex)
	if nil != err {
		return nil, nil, wrapError(err, "failed deriving mac key")
	}
	return encKey, macKey, nil
}
