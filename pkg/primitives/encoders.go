package primitives

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
)

// KeyEncoder converts protocol key material to and from wire bytes.
// The protocol fixes raw encodings: 16 raw bytes for symmetric keys,
// SEC1 points for public keys. No X.509/ASN.1 container is involved.
//
// The zero value is ready to use, the type exists so that embedding
// applications can swap encodings behind a single seam.
type KeyEncoder struct{}

// NewSecretKey validates b as symmetric key material and returns a private copy.
func (self KeyEncoder) NewSecretKey(b []byte) ([]byte, error) {
	if SECRET_KEY_LEN != len(b) {
		return nil, newFlagError(ErrInvalidKey, "invalid secret key length %d, expected %d", len(b), SECRET_KEY_LEN)
	}
	rv := make([]byte, SECRET_KEY_LEN)
	copy(rv, b)
	return rv, nil
}

// EncodePoint returns the uncompressed SEC1 encoding of pub (65 bytes).
func (self KeyEncoder) EncodePoint(pub *ecdh.PublicKey) ([]byte, error) {
	if nil == pub {
		return nil, newFlagError(ErrInvalidKey, "nil public key")
	}
	return pub.Bytes(), nil
}

// DecodePoint parses an uncompressed SEC1 secp256r1 point.
func (self KeyEncoder) DecodePoint(b []byte) (*ecdh.PublicKey, error) {
	pub, err := ecdh.P256().NewPublicKey(b)
	if nil != err {
		return nil, wrapFlagError(err, ErrInvalidKey, "failed parsing P256 point")
	}
	return pub, nil
}

// CompressPoint returns the compressed SEC1 encoding of pub (33 bytes).
func (self KeyEncoder) CompressPoint(pub *ecdh.PublicKey) ([]byte, error) {
	ecdsaPub, err := self.DecodeSigningKey(pub.Bytes())
	if nil != err {
		return nil, err
	}
	return elliptic.MarshalCompressed(elliptic.P256(), ecdsaPub.X, ecdsaPub.Y), nil
}

// DecompressPoint parses a compressed SEC1 secp256r1 point.
func (self KeyEncoder) DecompressPoint(b []byte) (*ecdh.PublicKey, error) {
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), b)
	if nil == x {
		return nil, newFlagError(ErrInvalidKey, "failed parsing compressed P256 point")
	}
	return self.DecodePoint(elliptic.Marshal(elliptic.P256(), x, y))
}

// EncodeSigningKey returns the uncompressed SEC1 encoding of an ECDSA public key.
func (self KeyEncoder) EncodeSigningKey(pub *ecdsa.PublicKey) ([]byte, error) {
	if nil == pub || nil == pub.X {
		return nil, newFlagError(ErrInvalidKey, "nil public key")
	}
	return elliptic.Marshal(elliptic.P256(), pub.X, pub.Y), nil
}

// DecodeSigningKey parses an uncompressed SEC1 secp256r1 point as an ECDSA public key.
func (self KeyEncoder) DecodeSigningKey(b []byte) (*ecdsa.PublicKey, error) {
	x, y := elliptic.Unmarshal(elliptic.P256(), b)
	if nil == x {
		return nil, newFlagError(ErrInvalidKey, "failed parsing P256 point")
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}
