package primitives

import (
	"bytes"
	"errors"
	"testing"
)

func TestPointRoundTrip(t *testing.T) {
	provider := Provider{}
	enc := KeyEncoder{}

	keypair, err := provider.GenerateKeyPair()
	if nil != err {
		t.Fatalf("Failed generating key pair, got error %v", err)
	}
	pub := keypair.PublicKey()

	srzpoint, err := enc.EncodePoint(pub)
	if nil != err {
		t.Fatalf("Failed EncodePoint, got error %v", err)
	}
	if 65 != len(srzpoint) {
		t.Errorf("Failed uncompressed point length control, got %d", len(srzpoint))
	}
	decoded, err := enc.DecodePoint(srzpoint)
	if nil != err {
		t.Fatalf("Failed DecodePoint, got error %v", err)
	}
	if !pub.Equal(decoded) {
		t.Error("Failed point round trip")
	}
}

func TestCompressedPointRoundTrip(t *testing.T) {
	provider := Provider{}
	enc := KeyEncoder{}

	keypair, err := provider.GenerateKeyPair()
	if nil != err {
		t.Fatalf("Failed generating key pair, got error %v", err)
	}
	pub := keypair.PublicKey()

	compressed, err := enc.CompressPoint(pub)
	if nil != err {
		t.Fatalf("Failed CompressPoint, got error %v", err)
	}
	if 33 != len(compressed) {
		t.Errorf("Failed compressed point length control, got %d", len(compressed))
	}
	decoded, err := enc.DecompressPoint(compressed)
	if nil != err {
		t.Fatalf("Failed DecompressPoint, got error %v", err)
	}
	if !pub.Equal(decoded) {
		t.Error("Failed compressed point round trip")
	}
}

func TestSigningKeyRoundTrip(t *testing.T) {
	provider := Provider{}
	enc := KeyEncoder{}

	master, err := provider.GenerateSigningKeyPair()
	if nil != err {
		t.Fatalf("Failed generating master key pair, got error %v", err)
	}
	srzkey, err := enc.EncodeSigningKey(&master.PublicKey)
	if nil != err {
		t.Fatalf("Failed EncodeSigningKey, got error %v", err)
	}
	decoded, err := enc.DecodeSigningKey(srzkey)
	if nil != err {
		t.Fatalf("Failed DecodeSigningKey, got error %v", err)
	}
	if !master.PublicKey.Equal(decoded) {
		t.Error("Failed signing key round trip")
	}
}

func TestNewSecretKeyChecksLength(t *testing.T) {
	enc := KeyEncoder{}
	key, err := enc.NewSecretKey(bytes.Repeat([]byte{0x0F}, 16))
	if nil != err {
		t.Fatalf("Failed NewSecretKey, got error %v", err)
	}
	if 16 != len(key) {
		t.Errorf("Failed key length control, got %d", len(key))
	}
	_, err = enc.NewSecretKey(make([]byte, 32))
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Oops, 32 byte secret key was accepted, err -> %v", err)
	}
}
