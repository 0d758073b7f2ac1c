package primitives

import (
	"crypto/ecdsa"
	"crypto/elliptic"
)

// GenerateSigningKeyPair returns a fresh secp256r1 key pair usable for ECDSA signatures.
// Activation ceremonies use such pairs as the server long-term master key.
func (self Provider) GenerateSigningKeyPair() (*ecdsa.PrivateKey, error) {
	keypair, err := ecdsa.GenerateKey(elliptic.P256(), self.rng())
	if nil != err {
		return nil, wrapFlagError(err, ErrCryptoFailure, "failed generating P256 signing key pair")
	}
	return keypair, nil
}

// EcdsaSign returns the ASN.1 DER encoded ECDSA-SHA-256 signature of data.
func (self Provider) EcdsaSign(priv *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	if nil == priv {
		return nil, newFlagError(ErrInvalidKey, "nil private key")
	}
	rv, err := ecdsa.SignASN1(self.rng(), priv, Sha256(data))
	if nil != err {
		return nil, wrapFlagError(err, ErrCryptoFailure, "failed ECDSA signature")
	}
	return rv, nil
}

// EcdsaVerify reports whether signature is a valid ECDSA-SHA-256 signature of data under pub.
func EcdsaVerify(pub *ecdsa.PublicKey, data, signature []byte) bool {
	if nil == pub {
		return false
	}
	return ecdsa.VerifyASN1(pub, Sha256(data), signature)
}
