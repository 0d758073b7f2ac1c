// Package keyfactory derives the named symmetric keys of the MFactor protocol
// from the master secret established during activation.
//
// All derivations are deterministic and bit-reproducible, they are part of the
// wire contract between device and server.
package keyfactory

import (
	"crypto/ecdh"
	"encoding/binary"

	"code.mfactor.org/golang/pkg/primitives"
)

// Fixed derivation indices of the named protocol keys.
const (
	INDEX_POSSESSION = uint64(1)
	INDEX_KNOWLEDGE  = uint64(2)
	INDEX_BIOMETRY   = uint64(3)
	INDEX_TRANSPORT  = uint64(1000)
	INDEX_VAULT      = uint64(2000)
)

// SecretKeys holds the expansion of a master secret into the named protocol keys.
type SecretKeys struct {
	Possession []byte
	Knowledge  []byte
	Biometry   []byte
	Transport  []byte
	Vault      []byte
}

// Factory derives protocol keys. The zero value uses the platform defaults.
type Factory struct {
	Provider primitives.Provider
}

// RandomSecretKey draws a fresh 16 byte symmetric key, used for token secrets
// and other collaborator generated key material.
func (self Factory) RandomSecretKey() ([]byte, error) {
	key, err := self.Provider.RandomBytes(primitives.SECRET_KEY_LEN)
	return key, wrapError(err, "failed drawing secret key") // nil if err is nil...
}

// SharedSecret computes the 16 byte protocol master secret from an ECDH agreement,
// folding the raw 32 byte x-coordinate with xor.
func (self Factory) SharedSecret(priv *ecdh.PrivateKey, pub *ecdh.PublicKey) ([]byte, error) {
	z, err := primitives.Ecdh(priv, pub)
	if nil != err {
		return nil, wrapError(err, "failed ECDH agreement")
	}
	ms, err := primitives.XorFold(z)
	if nil != err {
		return nil, wrapError(err, "failed folding shared secret")
	}
	return ms, nil
}

// Derive expands masterSecret with a numeric index using the AES block KDF:
// the index is rendered as a single 16 byte big-endian block and encrypted
// under masterSecret with a zero IV, which is equivalent to one AES-ECB block.
func (self Factory) Derive(masterSecret []byte, index uint64) ([]byte, error) {
	block := make([]byte, 16)
	binary.BigEndian.PutUint64(block[8:], index)
	iv := make([]byte, 16)
	encrypted, err := primitives.AesCbcEncrypt(block, iv, masterSecret, primitives.PaddingNone)
	if nil != err {
		return nil, wrapError(err, "failed index encryption")
	}
	return encrypted[:16], nil
}

// DeriveHmac expands masterSecret with an opaque index using the HMAC KDF:
// xor-fold of HMAC-SHA-256(masterSecret, index).
func (self Factory) DeriveHmac(masterSecret, index []byte) ([]byte, error) {
	if primitives.SECRET_KEY_LEN != len(masterSecret) {
		return nil, wrapError(primitives.ErrInvalidKey, "invalid master secret length %d", len(masterSecret))
	}
	h := primitives.HmacSha256(masterSecret, index)
	folded, err := primitives.XorFold(h)
	if nil != err {
		return nil, wrapError(err, "failed folding derived key")
	}
	return folded, nil
}

// DeriveFromPassword derives a knowledge-factor key from an utf8 password and salt.
func (self Factory) DeriveFromPassword(password string, salt []byte) []byte {
	return primitives.Pbkdf2Sha1(password, salt)
}

// DeriveAll expands masterSecret into the full set of named protocol keys.
func (self Factory) DeriveAll(masterSecret []byte) (SecretKeys, error) {
	keys := SecretKeys{}
	for _, entry := range []struct {
		index uint64
		dst   *[]byte
	}{
		{INDEX_POSSESSION, &keys.Possession},
		{INDEX_KNOWLEDGE, &keys.Knowledge},
		{INDEX_BIOMETRY, &keys.Biometry},
		{INDEX_TRANSPORT, &keys.Transport},
		{INDEX_VAULT, &keys.Vault},
	} {
		derived, err := self.Derive(masterSecret, entry.index)
		if nil != err {
			return SecretKeys{}, wrapError(err, "failed deriving key %d", entry.index)
		}
		*entry.dst = derived
	}
	return keys, nil
}
