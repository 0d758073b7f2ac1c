package e2e

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"code.mfactor.org/golang/pkg/primitives"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc := testEncryptor(t, nil)
	for _, payload := range [][]byte{
		{},
		[]byte("hello world"),
		bytes.Repeat([]byte{0x42}, 1000),
	} {
		message, err := enc.Encrypt(payload)
		if nil != err {
			t.Fatalf("Failed Encrypt, got error %v", err)
		}
		if bytes.Equal(message.AdHocIndex, message.MacIndex) {
			t.Fatal("Oops, adHocIndex equals macIndex")
		}
		decrypted, err := enc.Decrypt(message)
		if nil != err {
			t.Fatalf("Failed Decrypt, got error %v", err)
		}
		if !bytes.Equal(payload, decrypted) {
			t.Errorf("Failed round trip\npayload: % X\ngot:     % X", payload, decrypted)
		}
	}
}

func TestEncryptVector(t *testing.T) {
	// deterministic random source: adHocIndex, macIndex, nonce in draw order
	rng := bytes.NewReader(mustHex(t,
		"101112131415161718191A1B1C1D1E1F"+
			"202122232425262728292A2B2C2D2E2F"+
			"303132333435363738393A3B3C3D3E3F"))
	enc := testEncryptor(t, rng)

	message, err := enc.Encrypt([]byte("hello world"))
	if nil != err {
		t.Fatalf("Failed Encrypt, got error %v", err)
	}
	if !bytes.Equal(mustHex(t, "6e94bea21c258030ce54e18c5d41aea4"), message.EncryptedData) {
		t.Errorf("Failed ciphertext control, got % X", message.EncryptedData)
	}
	expectedMac := mustHex(t, "4b4feaff3f031fa3f64d9860413041ad41c8b6f9af7a123f385d74d7a21b982e")
	if !bytes.Equal(expectedMac, message.Mac) {
		t.Errorf("Failed mac control, got % X", message.Mac)
	}
}

func TestDecryptRejectsEqualIndices(t *testing.T) {
	enc := testEncryptor(t, nil)
	message, err := enc.Encrypt([]byte("payload"))
	if nil != err {
		t.Fatalf("Failed Encrypt, got error %v", err)
	}
	message.MacIndex = append([]byte{}, message.AdHocIndex...)
	_, err = enc.Decrypt(message)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Oops, equal indices were accepted, err -> %v", err)
	}
}

func TestDecryptRejectsTamperedPayload(t *testing.T) {
	enc := testEncryptor(t, nil)
	message, err := enc.Encrypt([]byte("payload"))
	if nil != err {
		t.Fatalf("Failed Encrypt, got error %v", err)
	}
	message.EncryptedData[0] ^= 0x01
	_, err = enc.Decrypt(message)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Oops, tampered payload was accepted, err -> %v", err)
	}
}

func TestDecryptRejectsBadShapes(t *testing.T) {
	enc := testEncryptor(t, nil)
	genuine, err := enc.Encrypt([]byte("payload"))
	if nil != err {
		t.Fatalf("Failed Encrypt, got error %v", err)
	}

	for name, mutate := range map[string]func(*Message){
		"short adHocIndex": func(m *Message) { m.AdHocIndex = m.AdHocIndex[:8] },
		"short macIndex":   func(m *Message) { m.MacIndex = m.MacIndex[:8] },
		"short nonce":      func(m *Message) { m.Nonce = m.Nonce[:8] },
		"nil adHocIndex":   func(m *Message) { m.AdHocIndex = nil },
	} {
		message := genuine
		mutate(&message)
		_, err := enc.Decrypt(message)
		if !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("Oops, %s was accepted, err -> %v", name, err)
		}
	}
}

func TestEncryptStuckRngExhaustion(t *testing.T) {
	enc := testEncryptor(t, stuckReader{})
	_, err := enc.Encrypt([]byte("payload"))
	if !errors.Is(err, primitives.ErrRngExhaustion) {
		t.Errorf("Oops, expected ErrRngExhaustion, err -> %v", err)
	}
}

// stuckReader simulates a broken random source that always returns zeros.
type stuckReader struct{}

func (self stuckReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func testEncryptor(t *testing.T, rng interface{ Read([]byte) (int, error) }) Encryptor {
	t.Helper()
	return Encryptor{
		ApplicationKey:          mustHex(t, "A0A1A2A3A4A5A6A7A8A9AAABACADAEAF"),
		SessionIndex:            mustHex(t, "B0B1B2B3B4B5B6B7B8B9BABBBCBDBEBF"),
		SessionRelatedSecretKey: mustHex(t, "000102030405060708090A0B0C0D0E0F"),
		EphemeralPublicKey:      mustHex(t, "04C0C1C2C3"),
		Provider:                primitives.Provider{Rng: rng},
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
