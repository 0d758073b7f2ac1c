package signature

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"code.mfactor.org/golang/pkg/counter"
)

var (
	sigData = []byte("POST&/pa/signature/validate&bm9uY2U=&Ym9keQ==")

	keyPossession = "0F0E0D0C0B0A09080706050403020100"
	keyKnowledge  = "102132435465768798A9BACBDCEDFE0F"
	keyBiometry   = "FFEEDDCCBBAA99887766554433221100"

	ctrSeed = "00000000000000000000000000000001"
)

// Regression vectors: these pin the inner chaining order of the reference
// algorithm, do not regenerate without checking device interoperability.
var computeVectors = []struct {
	name     string
	keys     []string
	expected string
}{
	{"1FA", []string{keyPossession}, "87714236"},
	{"2FA", []string{keyPossession, keyKnowledge}, "87714236-19165391"},
	{"3FA", []string{keyPossession, keyKnowledge, keyBiometry}, "87714236-19165391-35991813"},
}

func TestComputeHashChainVectors(t *testing.T) {
	engine := Engine{}
	ctr, err := counter.NewHashChain(mustHex(t, ctrSeed))
	if nil != err {
		t.Fatalf("Failed NewHashChain, got error %v", err)
	}
	for _, vec := range computeVectors {
		t.Run(vec.name, func(t *testing.T) {
			computed, err := engine.Compute(sigData, mustKeys(t, vec.keys), ctr)
			if nil != err {
				t.Fatalf("Failed Compute, got error %v", err)
			}
			if vec.expected != computed {
				t.Errorf("Failed signature control\nexpected: %s\ngot:      %s", vec.expected, computed)
			}
		})
	}
}

func TestComputeNumericVector(t *testing.T) {
	engine := Engine{AllowLegacy: true}
	keys := mustKeys(t, []string{keyPossession, keyKnowledge})
	computed, err := engine.Compute(sigData, keys, counter.NewNumeric(42))
	if nil != err {
		t.Fatalf("Failed Compute, got error %v", err)
	}
	if "37386061-62201621" != computed {
		t.Errorf("Failed signature control, got %s", computed)
	}
}

func TestLegacyCounterRejectedByDefault(t *testing.T) {
	engine := Engine{}
	keys := mustKeys(t, []string{keyPossession})
	_, err := engine.Compute(sigData, keys, counter.NewNumeric(0))
	if !errors.Is(err, ErrLegacyDisabled) {
		t.Errorf("Oops, numeric counter was accepted, err -> %v", err)
	}
}

func TestSignatureShape(t *testing.T) {
	engine := Engine{}
	ctr, err := counter.NewHashChain(mustHex(t, ctrSeed))
	if nil != err {
		t.Fatalf("Failed NewHashChain, got error %v", err)
	}
	allKeys := mustKeys(t, []string{keyPossession, keyKnowledge, keyBiometry})
	for k := 1; k <= 3; k++ {
		computed, err := engine.Compute(sigData, allKeys[:k], ctr)
		if nil != err {
			t.Fatalf("Failed Compute with %d keys, got error %v", k, err)
		}
		if len(computed) != COMPONENT_DIGITS*k+(k-1) {
			t.Errorf("Failed length control with %d keys, got %d", k, len(computed))
		}
		if strings.Count(computed, "-") != k-1 {
			t.Errorf("Failed separator control with %d keys, got %s", k, computed)
		}
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	engine := Engine{}
	ctr, err := counter.NewHashChain(mustHex(t, ctrSeed))
	if nil != err {
		t.Fatalf("Failed NewHashChain, got error %v", err)
	}
	keys := mustKeys(t, []string{keyPossession, keyKnowledge})
	computed, err := engine.Compute(sigData, keys, ctr)
	if nil != err {
		t.Fatalf("Failed Compute, got error %v", err)
	}

	ok, err := engine.Verify(computed, sigData, keys, ctr)
	if nil != err {
		t.Fatalf("Failed Verify, got error %v", err)
	}
	if !ok {
		t.Error("Failed verifying genuine signature")
	}

	// perturb the data
	tampered := append([]byte{}, sigData...)
	tampered[0] ^= 0x01
	ok, err = engine.Verify(computed, tampered, keys, ctr)
	if nil != err {
		t.Fatalf("Failed Verify, got error %v", err)
	}
	if ok {
		t.Error("Oops, signature verified over tampered data")
	}

	// perturb a key
	badKeys := mustKeys(t, []string{keyPossession, keyKnowledge})
	badKeys[1][0] ^= 0x01
	ok, err = engine.Verify(computed, sigData, badKeys, ctr)
	if nil != err {
		t.Fatalf("Failed Verify, got error %v", err)
	}
	if ok {
		t.Error("Oops, signature verified with a perturbed key")
	}

	// perturb the counter
	ok, err = engine.Verify(computed, sigData, keys, ctr.Advance())
	if nil != err {
		t.Fatalf("Failed Verify, got error %v", err)
	}
	if ok {
		t.Error("Oops, signature verified with an advanced counter")
	}
}

func TestVerifyWindow(t *testing.T) {
	engine := Engine{}
	ctr, err := counter.NewHashChain(mustHex(t, ctrSeed))
	if nil != err {
		t.Fatalf("Failed NewHashChain, got error %v", err)
	}
	keys := mustKeys(t, []string{keyPossession})

	// device moved 3 steps ahead of the server
	deviceCtr := ctr.AdvanceBy(3)
	candidate, err := engine.Compute(sigData, keys, deviceCtr)
	if nil != err {
		t.Fatalf("Failed Compute, got error %v", err)
	}

	offset, err := engine.VerifyWindow(candidate, sigData, keys, ctr.LookAhead(5))
	if nil != err {
		t.Fatalf("Failed VerifyWindow, got error %v", err)
	}
	if 3 != offset {
		t.Errorf("Failed offset control, got %d", offset)
	}

	// outside the window
	offset, err = engine.VerifyWindow(candidate, sigData, keys, ctr.LookAhead(2))
	if nil != err {
		t.Fatalf("Failed VerifyWindow, got error %v", err)
	}
	if -1 != offset {
		t.Errorf("Oops, found match at offset %d in a too small window", offset)
	}
}

func TestInvalidInputs(t *testing.T) {
	engine := Engine{}
	ctr, err := counter.NewHashChain(mustHex(t, ctrSeed))
	if nil != err {
		t.Fatalf("Failed NewHashChain, got error %v", err)
	}

	_, err = engine.Compute(sigData, nil, ctr)
	if !errors.Is(err, ErrInvalidKeyCount) {
		t.Errorf("Oops, empty key list was accepted, err -> %v", err)
	}

	fourKeys := mustKeys(t, []string{keyPossession, keyKnowledge, keyBiometry, keyPossession})
	_, err = engine.Compute(sigData, fourKeys, ctr)
	if !errors.Is(err, ErrInvalidKeyCount) {
		t.Errorf("Oops, 4 keys were accepted, err -> %v", err)
	}

	_, err = engine.VerifyWindow("00000000", sigData, mustKeys(t, []string{keyPossession}), [][]byte{make([]byte, 8)})
	if !errors.Is(err, ErrInvalidCounter) {
		t.Errorf("Oops, 8 byte counter material was accepted, err -> %v", err)
	}
}

func mustKeys(t *testing.T, srzkeys []string) [][]byte {
	t.Helper()
	rv := make([][]byte, 0, len(srzkeys))
	for _, srzkey := range srzkeys {
		rv = append(rv, mustHex(t, srzkey))
	}
	return rv
}

func mustHex(t *testing.T, src string) []byte {
	t.Helper()
	rv, err := hex.DecodeString(src)
	if nil != err {
		t.Fatalf("Failed decoding hex fixture %s, got error %v", src, err)
	}
	return rv
}
