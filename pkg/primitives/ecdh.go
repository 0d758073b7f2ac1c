package primitives

import (
	"crypto/ecdh"
)

// GenerateKeyPair returns a fresh secp256r1 key pair drawn from the Provider random source.
func (self Provider) GenerateKeyPair() (*ecdh.PrivateKey, error) {
	keypair, err := ecdh.P256().GenerateKey(self.rng())
	if nil != err {
		return nil, wrapFlagError(err, ErrCryptoFailure, "failed generating P256 key pair")
	}
	return keypair, nil
}

// Ecdh computes the raw 32 byte x-coordinate of the secp256r1 Diffie-Hellmann
// agreement between priv and pub.
func Ecdh(priv *ecdh.PrivateKey, pub *ecdh.PublicKey) ([]byte, error) {
	if nil == priv || nil == pub {
		return nil, newFlagError(ErrInvalidKey, "nil key")
	}
	rv, err := priv.ECDH(pub)
	if nil != err {
		return nil, wrapFlagError(err, ErrInvalidKey, "failed ECDH agreement")
	}
	return rv, nil
}
