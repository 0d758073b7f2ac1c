package token

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"

	"code.mfactor.org/golang/pkg/primitives"
)

func TestComputeDigestVector(t *testing.T) {
	nonce := make([]byte, 16)
	timestamp := []byte("1700000000000")
	secret := bytes.Repeat([]byte{0xFF}, 16)

	digest, err := ComputeDigest(nonce, timestamp, secret)
	if nil != err {
		t.Fatalf("Failed ComputeDigest, got error %v", err)
	}
	expected := mustHex(t, "79d87147ba1ace6ba138947f5c20a45bf5df63fe6479f123e92b6f98a72dcad7")
	if !bytes.Equal(expected, digest) {
		t.Errorf("Failed digest control\nexpected: % X\ngot:      % X", expected, digest)
	}
}

func TestVerifyDigestRoundTrip(t *testing.T) {
	gen := Generator{}
	nonce, err := gen.GenerateNonce()
	if nil != err {
		t.Fatalf("Failed GenerateNonce, got error %v", err)
	}
	timestamp := gen.GenerateTimestamp()
	secret := bytes.Repeat([]byte{0x42}, 16)

	digest, err := ComputeDigest(nonce, timestamp, secret)
	if nil != err {
		t.Fatalf("Failed ComputeDigest, got error %v", err)
	}
	ok, err := VerifyDigest(digest, nonce, timestamp, secret)
	if nil != err {
		t.Fatalf("Failed VerifyDigest, got error %v", err)
	}
	if !ok {
		t.Error("Failed verifying genuine digest")
	}

	digest[0] ^= 0x01
	ok, err = VerifyDigest(digest, nonce, timestamp, secret)
	if nil != err {
		t.Fatalf("Failed VerifyDigest, got error %v", err)
	}
	if ok {
		t.Error("Oops, tampered digest verified")
	}
}

func TestGenerateTimestamp(t *testing.T) {
	gen := Generator{Now: func() time.Time { return time.UnixMilli(1700000000000) }}
	timestamp := gen.GenerateTimestamp()
	if "1700000000000" != string(timestamp) {
		t.Errorf("Failed timestamp control, got %s", timestamp)
	}
	if 13 != len(timestamp) {
		t.Errorf("Failed timestamp length control, got %d", len(timestamp))
	}
}

func TestComputeDigestRejectsBadNonce(t *testing.T) {
	_, err := ComputeDigest(make([]byte, 8), []byte("1700000000000"), make([]byte, 16))
	if nil == err {
		t.Error("Oops, 8 byte nonce was accepted")
	}
}

func TestNewToken(t *testing.T) {
	tok, err := NewToken(primitives.Provider{}, "possession_knowledge")
	if nil != err {
		t.Fatalf("Failed NewToken, got error %v", err)
	}
	if uuid.Nil == tok.Id {
		t.Error("Failed token id control, got Nil uuid")
	}
	if SECRET_LEN != len(tok.Secret) {
		t.Errorf("Failed token secret length control, got %d", len(tok.Secret))
	}
	if "possession_knowledge" != tok.Factors {
		t.Errorf("Failed token factors control, got %s", tok.Factors)
	}
}

func mustHex(t *testing.T, src string) []byte {
	t.Helper()
	rv, err := hex.DecodeString(src)
	if nil != err {
		t.Fatalf("Failed decoding hex fixture %s, got error %v", src, err)
	}
	return rv
}
