package activation

import (
	"testing"

	"code.mfactor.org/golang/pkg/primitives"
)

func TestGenerateCodeShape(t *testing.T) {
	provider := primitives.Provider{}
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		code, err := GenerateCode(provider)
		if nil != err {
			t.Fatalf("Failed GenerateCode, got error %v", err)
		}
		if err := CheckCode(code); nil != err {
			t.Errorf("Failed CheckCode on %s, got error %v", code, err)
		}
		if seen[code] {
			t.Errorf("Oops, duplicate code %s", code)
		}
		seen[code] = true
	}
}

func TestCheckCodeRejects(t *testing.T) {
	for _, code := range []string{
		"",
		"ABCDE",
		"ABCDEFYYYYY",
		"ABCDE+YYYYY",
		"abcde-yyyyy",
		"ABCD1-YYYYY", // 1 is outside the alphabet
		"ABCDE-YYYYY-ZZZZZ",
	} {
		if err := CheckCode(code); nil == err {
			t.Errorf("Oops, code %q was accepted", code)
		}
	}
	if err := CheckCode("ABCDE-23456"); nil != err {
		t.Errorf("Failed CheckCode on valid code, got error %v", err)
	}
}

func TestMatchCode(t *testing.T) {
	if !MatchCode("ABCDE-23456", "ABCDE-23456") {
		t.Error("Failed matching equal codes")
	}
	if MatchCode("ABCDE-23456", "ABCDE-23457") {
		t.Error("Oops, different codes matched")
	}
	if MatchCode("ABCDE-23456", "ABCDE") {
		t.Error("Oops, codes of different length matched")
	}
}

func TestFingerprintVector(t *testing.T) {
	encodedPoint := make([]byte, 65)
	for i := range encodedPoint {
		encodedPoint[i] = byte(i)
	}
	if "33157249" != fingerprintOf(encodedPoint) {
		t.Errorf("Failed fingerprint control, got %s", fingerprintOf(encodedPoint))
	}
}

func TestFingerprintRejectsNil(t *testing.T) {
	_, err := Fingerprint(nil)
	if nil == err {
		t.Error("Oops, nil public key was accepted")
	}
}
